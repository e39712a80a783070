// Package service contains the orchestration layer of the knowledge base:
// document lifecycle, tag hierarchy maintenance, version snapshotting, and
// the search index bridge. Services own the business invariants; persistence
// mechanics live behind the store contract.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/quillapp/quill-server/internal/domain"
	apperrors "github.com/quillapp/quill-server/internal/errors"
	"github.com/quillapp/quill-server/internal/id"
	"github.com/quillapp/quill-server/internal/store"
)

// TagService maintains the tag hierarchy: name-uniqueness per parent,
// bounded depth, and the tag↔document association.
type TagService struct {
	store    store.Store
	maxDepth int
	logger   *slog.Logger
}

// NewTagService creates a new tag service. A non-positive maxDepth falls
// back to the default hierarchy depth limit.
func NewTagService(store store.Store, maxDepth int, logger *slog.Logger) *TagService {
	if maxDepth <= 0 {
		maxDepth = domain.MaxHierarchyDepth
	}
	return &TagService{
		store:    store,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Create creates a new tag, optionally under a parent.
// Fails with NotFound if parentID is given but does not resolve,
// HierarchyDepthExceeded if the parent chain is already at the depth limit,
// and DuplicateTag if the (name, parent) pair is taken.
func (s *TagService) Create(ctx context.Context, name, parentID string) (*domain.Tag, error) {
	name, err := normalizeTagName(name)
	if err != nil {
		return nil, err
	}

	if parentID != "" {
		parent, err := s.store.GetTag(ctx, parentID)
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("parent tag %s not found", parentID)
		}
		if err != nil {
			return nil, err
		}

		depth, err := s.chainDepth(ctx, parent)
		if err != nil {
			return nil, err
		}
		if depth >= s.maxDepth {
			return nil, apperrors.HierarchyDepthExceeded("maximum tag hierarchy depth reached")
		}
	}

	// Pre-check gives a clean error; the unique index is the real guard.
	if _, err := s.store.GetTagByName(ctx, name, parentID); err == nil {
		return nil, apperrors.DuplicateTagf("tag %q already exists under this parent", name)
	} else if !apperrors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	tag := &domain.Tag{
		ID:        id.MustGenerate(id.PrefixTag),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if apperrors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.DuplicateTagf("tag %q already exists under this parent", name)
		}
		return nil, err
	}

	s.logger.Info("tag created", "tag_id", tag.ID, "name", tag.Name, "parent_id", parentID)
	return tag, nil
}

// Rename changes a tag's name.
// Fails with NotFound if the tag does not exist and DuplicateTag if a sibling
// already carries the new name.
func (s *TagService) Rename(ctx context.Context, tagID, newName string) (*domain.Tag, error) {
	newName, err := normalizeTagName(newName)
	if err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, tagID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return nil, err
	}

	if tag.Name == newName {
		return tag, nil
	}

	if existing, err := s.store.GetTagByName(ctx, newName, tag.ParentID); err == nil && existing.ID != tag.ID {
		return nil, apperrors.DuplicateTagf("tag %q already exists under this parent", newName)
	} else if err != nil && !apperrors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	oldName := tag.Name
	tag.Name = newName
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if apperrors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.DuplicateTagf("tag %q already exists under this parent", newName)
		}
		return nil, err
	}

	s.logger.Info("tag renamed", "tag_id", tag.ID, "old_name", oldName, "new_name", newName)
	return tag, nil
}

// Delete removes a tag.
// Fails with NotFound if the tag does not exist, TagInUse if any document
// carries it, and TagHasChildren if it has child tags. Soft-deleted
// documents count as carriers: deleting the tag would strip it from their
// restore path.
func (s *TagService) Delete(ctx context.Context, tagID string) error {
	tag, err := s.store.GetTag(ctx, tagID)
	if apperrors.Is(err, store.ErrNotFound) {
		return apperrors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return err
	}

	docIDs, err := s.store.GetDocumentIDsForTag(ctx, tagID)
	if err != nil {
		return err
	}
	if len(docIDs) > 0 {
		return apperrors.TagInUsef("tag %q is attached to %d document(s)", tag.Name, len(docIDs))
	}

	childCount, err := s.store.CountTagChildren(ctx, tagID)
	if err != nil {
		return err
	}
	if childCount > 0 {
		return apperrors.TagHasChildrenf("tag %q has %d child tag(s)", tag.Name, childCount)
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return err
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "name", tag.Name)
	return nil
}

// ResolveOrCreate returns the tag with the given (name, parent) pair,
// creating it if it does not exist. Creation races resolve through the
// store's uniqueness constraint followed by a re-read.
func (s *TagService) ResolveOrCreate(ctx context.Context, name, parentID string) (*domain.Tag, error) {
	name, err := normalizeTagName(name)
	if err != nil {
		return nil, err
	}

	tag, err := s.store.GetTagByName(ctx, name, parentID)
	if err == nil {
		return tag, nil
	}
	if !apperrors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	tag = &domain.Tag{
		ID:        id.MustGenerate(id.PrefixTag),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}

	err = s.store.CreateTag(ctx, tag)
	if apperrors.Is(err, store.ErrAlreadyExists) {
		// Lost the race; the winner's tag is what we want.
		return s.store.GetTagByName(ctx, name, parentID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag created on demand", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// Get returns a tag by ID.
func (s *TagService) Get(ctx context.Context, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("tag %s not found", tagID)
	}
	return tag, err
}

// List returns all tags ordered by name.
func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// Hierarchy returns root tags with children nested recursively, ordered by
// name at every level, each node carrying its active document count.
func (s *TagService) Hierarchy(ctx context.Context) ([]*domain.TagNode, error) {
	roots, err := s.store.ListRootTags(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]*domain.TagNode, 0, len(roots))
	for _, root := range roots {
		node, err := s.buildNode(ctx, root, 0)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// buildNode assembles a tag node and its subtree. The level cap carries one
// hop of slack over the depth limit so malformed data renders truncated
// rather than recursing without bound.
func (s *TagService) buildNode(ctx context.Context, tag *domain.Tag, level int) (*domain.TagNode, error) {
	count, err := s.store.CountDocumentsForTag(ctx, tag.ID)
	if err != nil {
		return nil, err
	}

	node := &domain.TagNode{
		Tag:           *tag,
		DocumentCount: count,
	}

	if level >= s.maxDepth {
		return node, nil
	}

	children, err := s.store.ListTagChildren(ctx, tag.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		childNode, err := s.buildNode(ctx, child, level+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

// Ancestors returns a tag's ancestor chain, nearest parent first.
// The walk is capped at the depth limit so cyclic or malformed data
// terminates.
func (s *TagService) Ancestors(ctx context.Context, tagID string) ([]*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return nil, err
	}

	var ancestors []*domain.Tag
	cur := tag
	for cur.ParentID != "" && len(ancestors) < s.maxDepth {
		parent, err := s.store.GetTag(ctx, cur.ParentID)
		if apperrors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, parent)
		cur = parent
	}
	return ancestors, nil
}

// Descendants returns all tags below the given tag, ordered by depth then
// name. The walk is level-bounded with one hop of slack over the depth limit.
func (s *TagService) Descendants(ctx context.Context, tagID string) ([]*domain.Tag, error) {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("tag %s not found", tagID)
		}
		return nil, err
	}

	var descendants []*domain.Tag
	frontier := []string{tagID}
	for level := 0; level <= s.maxDepth && len(frontier) > 0; level++ {
		var next []string
		for _, parentID := range frontier {
			children, err := s.store.ListTagChildren(ctx, parentID)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				descendants = append(descendants, child)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}
	return descendants, nil
}

// Associate attaches a tag to a document. Idempotent.
// Fails with NotFound if either side is missing or the document is
// soft-deleted.
func (s *TagService) Associate(ctx context.Context, tagID, documentID string) error {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.NotFoundf("tag %s not found", tagID)
		}
		return err
	}
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.NotFoundf("document %s not found", documentID)
		}
		return err
	}

	if err := s.store.AddTagToDocument(ctx, documentID, tagID); err != nil {
		return err
	}

	s.logger.Info("tag associated", "tag_id", tagID, "document_id", documentID)
	return nil
}

// Disassociate detaches a tag from a document. Idempotent.
// Fails with NotFound if either side is missing or the document is
// soft-deleted.
func (s *TagService) Disassociate(ctx context.Context, tagID, documentID string) error {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.NotFoundf("tag %s not found", tagID)
		}
		return err
	}
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.NotFoundf("document %s not found", documentID)
		}
		return err
	}

	if err := s.store.RemoveTagFromDocument(ctx, documentID, tagID); err != nil {
		return err
	}

	s.logger.Info("tag disassociated", "tag_id", tagID, "document_id", documentID)
	return nil
}

// Search returns tags whose name contains term, case-insensitive, ordered by name.
func (s *TagService) Search(ctx context.Context, term string) ([]*domain.Tag, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*domain.Tag{}, nil
	}
	return s.store.SearchTags(ctx, term)
}

// DocumentCount returns the number of active documents carrying the tag.
func (s *TagService) DocumentCount(ctx context.Context, tagID string) (int, error) {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return 0, apperrors.NotFoundf("tag %s not found", tagID)
		}
		return 0, err
	}
	return s.store.CountDocumentsForTag(ctx, tagID)
}

// chainDepth counts the tags on the chain from tag up to its root, tag
// included. The count is capped one past the depth limit; malformed data
// shows up as "too deep" rather than an endless walk.
func (s *TagService) chainDepth(ctx context.Context, tag *domain.Tag) (int, error) {
	depth := 1
	cur := tag
	for cur.ParentID != "" {
		if depth > s.maxDepth {
			return depth, nil
		}
		parent, err := s.store.GetTag(ctx, cur.ParentID)
		if apperrors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		depth++
		cur = parent
	}
	return depth, nil
}

// normalizeTagName trims and validates a tag name.
func normalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("tag name must not be blank")
	}
	if len(name) > domain.MaxTagNameLength {
		return "", apperrors.Validationf("tag name must not exceed %d characters", domain.MaxTagNameLength)
	}
	return name, nil
}
