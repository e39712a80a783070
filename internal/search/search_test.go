package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:      "doc-123",
		Title:   "Kubernetes cheat sheet",
		Content: "kubectl get pods and other incantations",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexDocuments_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "doc-1", Title: "Note One"},
		{ID: "doc-2", Title: "Note Two"},
		{ID: "doc-3", Title: "Note Three"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:    "doc-123",
		Title: "Soon to be trashed",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	err = index.DeleteDocument("doc-123")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "doc-1", Title: "Grafana dashboards", Content: "how to build panels"},
		{ID: "doc-2", Title: "Prometheus alerting", Content: "rules for grafana and alertmanager"},
		{ID: "doc-3", Title: "Shopping list", Content: "eggs, milk, flour"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query: "grafana",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestSearchIndex_Search_TitleBoost(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "doc-title", Title: "Grafana", Content: "dashboards"},
		{ID: "doc-body", Title: "Monitoring notes", Content: "mostly about grafana"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	result, err := index.Search(context.Background(), SearchParams{
		Query: "grafana",
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)

	// Title match must outrank the content match.
	assert.Equal(t, "doc-title", result.Hits[0].ID)
}

func TestSearchIndex_Search_TagFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "doc-1", Title: "Deploy runbook", Tags: []string{"ops", "runbook"}},
		{ID: "doc-2", Title: "Deploy checklist", Tags: []string{"checklist"}},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	result, err := index.Search(context.Background(), SearchParams{
		Query: "deploy",
		Tags:  []string{"ops"},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "doc-1", result.Hits[0].ID)
}

func TestSearchIndex_Search_SortRecent(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	now := time.Now()
	docs := []*SearchDocument{
		{ID: "doc-old", Title: "Standup notes", UpdatedAt: now.Add(-48 * time.Hour).UnixMilli()},
		{ID: "doc-new", Title: "Standup notes", UpdatedAt: now.UnixMilli()},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	result, err := index.Search(context.Background(), SearchParams{
		Query:  "standup",
		SortBy: "recent",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "doc-new", result.Hits[0].ID)
}

func TestSearchIndex_Search_Highlighting(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:      "doc-hl",
		Title:   "Postgres tuning",
		Content: "shared_buffers and work_mem settings for postgres",
	}
	require.NoError(t, index.IndexDocument(doc))

	result, err := index.Search(context.Background(), SearchParams{
		Query:     "postgres",
		Limit:     10,
		Highlight: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.NotEmpty(t, result.Hits[0].Highlights)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	require.NoError(t, index.IndexDocument(&SearchDocument{ID: "doc-1", Title: "Ephemeral"}))

	err := index.Rebuild()
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// The rebuilt index accepts new documents.
	require.NoError(t, index.IndexDocument(&SearchDocument{ID: "doc-2", Title: "Fresh"}))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestFromDomain(t *testing.T) {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        "doc-conv",
		Title:     "Conversion test",
		Content:   "body",
		CreatedAt: now,
		UpdatedAt: now,
	}

	sd := FromDomain(doc, []string{"golang", "testing"})
	assert.Equal(t, "doc-conv", sd.ID)
	assert.Equal(t, "Conversion test", sd.Title)
	assert.Equal(t, []string{"golang", "testing"}, sd.Tags)
	assert.Equal(t, now.UnixMilli(), sd.CreatedAt)
}
