package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-server/internal/domain"
	apperrors "github.com/quillapp/quill-server/internal/errors"
)

func TestTagService_CreateDuplicate(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	root, err := tagSvc.Create(ctx, "work", "")
	require.NoError(t, err)

	// Same name under the same parent (root) fails.
	_, err = tagSvc.Create(ctx, "work", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateTag))

	// Same name under a different parent succeeds.
	child, err := tagSvc.Create(ctx, "work", root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.ParentID)
}

func TestTagService_Create_ParentNotFound(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := tagSvc.Create(context.Background(), "orphan", "tag-missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTagService_Create_BlankName(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := tagSvc.Create(context.Background(), "   ", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestTagService_HierarchyDepthLimit(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	// Build a chain of tags up to the depth limit.
	parentID := ""
	var deepest *domain.Tag
	for i := 0; i < domain.MaxHierarchyDepth; i++ {
		tag, err := tagSvc.Create(ctx, "level", parentID)
		require.NoError(t, err, "level %d", i+1)
		parentID = tag.ID
		deepest = tag
	}

	// The tag at the limit cannot gain a child.
	_, err := tagSvc.Create(ctx, "too-deep", deepest.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrHierarchyDepth))
}

func TestTagService_Rename(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	tag, err := tagSvc.Create(ctx, "projetcs", "")
	require.NoError(t, err)
	_, err = tagSvc.Create(ctx, "archive", "")
	require.NoError(t, err)

	renamed, err := tagSvc.Rename(ctx, tag.ID, "projects")
	require.NoError(t, err)
	assert.Equal(t, "projects", renamed.Name)

	// Renaming onto a sibling's name fails.
	_, err = tagSvc.Rename(ctx, tag.ID, "archive")
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateTag))

	// Renaming a missing tag fails.
	_, err = tagSvc.Rename(ctx, "tag-missing", "anything")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTagService_DeleteBlockedThenAllowed(t *testing.T) {
	docSvc, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	doc, err := docSvc.Create(ctx, CreateDocumentRequest{
		Title:   "Holder",
		Content: "body",
		Tags:    []string{"sticky"},
	})
	require.NoError(t, err)

	tag, err := tagSvc.ResolveOrCreate(ctx, "sticky", "")
	require.NoError(t, err)

	// Blocked while an active document carries it.
	err = tagSvc.Delete(ctx, tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrTagInUse))

	// After disassociating, deletion succeeds.
	require.NoError(t, tagSvc.Disassociate(ctx, tag.ID, doc.ID))
	require.NoError(t, tagSvc.Delete(ctx, tag.ID))

	_, err = tagSvc.Get(ctx, tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTagService_DeleteBlockedBySoftDeletedDocument(t *testing.T) {
	docSvc, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	doc, err := docSvc.Create(ctx, CreateDocumentRequest{
		Title:   "Trashed holder",
		Content: "body",
		Tags:    []string{"keeper"},
	})
	require.NoError(t, err)

	tag, err := tagSvc.ResolveOrCreate(ctx, "keeper", "")
	require.NoError(t, err)

	require.NoError(t, docSvc.SoftDelete(ctx, doc.ID))

	// The tag's only carrier is soft-deleted, but deleting it would strip
	// the association the restore path depends on.
	err = tagSvc.Delete(ctx, tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrTagInUse))

	restored, err := docSvc.Restore(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trashed holder", restored.Title)

	tags, err := docSvc.Tags(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "keeper", tags[0].Name)
}

func TestTagService_DeleteWithChildren(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	parent, err := tagSvc.Create(ctx, "parent", "")
	require.NoError(t, err)
	child, err := tagSvc.Create(ctx, "child", parent.ID)
	require.NoError(t, err)

	err = tagSvc.Delete(ctx, parent.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrTagHasChildren))

	// Removing the child unblocks the parent.
	require.NoError(t, tagSvc.Delete(ctx, child.ID))
	require.NoError(t, tagSvc.Delete(ctx, parent.ID))
}

func TestTagService_ResolveOrCreate_Idempotent(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	first, err := tagSvc.ResolveOrCreate(ctx, "ideas", "")
	require.NoError(t, err)

	second, err := tagSvc.ResolveOrCreate(ctx, "ideas", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Trimming applies before resolution.
	third, err := tagSvc.ResolveOrCreate(ctx, "  ideas ", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestTagService_Hierarchy(t *testing.T) {
	docSvc, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	work, err := tagSvc.Create(ctx, "work", "")
	require.NoError(t, err)
	_, err = tagSvc.Create(ctx, "admin", "")
	require.NoError(t, err)
	_, err = tagSvc.Create(ctx, "reports", work.ID)
	require.NoError(t, err)
	_, err = tagSvc.Create(ctx, "meetings", work.ID)
	require.NoError(t, err)

	_, err = docSvc.Create(ctx, CreateDocumentRequest{
		Title:   "Counted",
		Content: "body",
		Tags:    []string{"work"},
	})
	require.NoError(t, err)

	nodes, err := tagSvc.Hierarchy(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	// Roots ordered by name.
	assert.Equal(t, "admin", nodes[0].Name)
	assert.Equal(t, "work", nodes[1].Name)

	// Children nested under work, ordered by name.
	require.Len(t, nodes[1].Children, 2)
	assert.Equal(t, "meetings", nodes[1].Children[0].Name)
	assert.Equal(t, "reports", nodes[1].Children[1].Name)

	// Active document counts attached per node.
	assert.Equal(t, 1, nodes[1].DocumentCount)
	assert.Equal(t, 0, nodes[0].DocumentCount)
}

func TestTagService_AncestorsAndDescendants(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	a, err := tagSvc.Create(ctx, "a", "")
	require.NoError(t, err)
	b, err := tagSvc.Create(ctx, "b", a.ID)
	require.NoError(t, err)
	c, err := tagSvc.Create(ctx, "c", b.ID)
	require.NoError(t, err)

	// Ancestors, nearest parent first.
	ancestors, err := tagSvc.Ancestors(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, b.ID, ancestors[0].ID)
	assert.Equal(t, a.ID, ancestors[1].ID)

	// Descendants, depth order.
	descendants, err := tagSvc.Descendants(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 2)
	assert.Equal(t, b.ID, descendants[0].ID)
	assert.Equal(t, c.ID, descendants[1].ID)

	root, err := tagSvc.Ancestors(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, root)
}

func TestTagService_AssociateRequiresActiveDocument(t *testing.T) {
	docSvc, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	doc, err := docSvc.Create(ctx, CreateDocumentRequest{Title: "Doomed", Content: "body"})
	require.NoError(t, err)
	tag, err := tagSvc.Create(ctx, "late", "")
	require.NoError(t, err)

	require.NoError(t, docSvc.SoftDelete(ctx, doc.ID))

	// Soft-deleted documents accept no new associations.
	err = tagSvc.Associate(ctx, tag.ID, doc.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = tagSvc.Associate(ctx, "tag-missing", doc.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTagService_Search(t *testing.T) {
	_, tagSvc, _, _, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	for _, name := range []string{"golang", "gopher", "rust"} {
		_, err := tagSvc.Create(ctx, name, "")
		require.NoError(t, err)
	}

	tags, err := tagSvc.Search(ctx, "GO")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "golang", tags[0].Name)
	assert.Equal(t, "gopher", tags[1].Name)

	tags, err = tagSvc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
