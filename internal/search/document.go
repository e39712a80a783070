// Package search provides full-text search over documents using Bleve.
// Active documents are indexed with their title, content, and tag names;
// soft-deleted documents are removed from the index and restored documents
// are re-added.
package search

import (
	"github.com/quillapp/quill-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
//
// Tag names are denormalized into the document so tag-scoped searches run
// as a single query. The index is rebuilt from the store on mapping changes,
// so stale denormalized tags never outlive a reindex.
type SearchDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Tags - tag names attached to the document
	Tags []string `json:"tags,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Content != "" {
		m["content"] = d.Content
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}

	return m
}

// FromDomain converts a domain Document to a SearchDocument.
// Tag names must be provided by the caller, as the search package
// shouldn't depend on store.
func FromDomain(doc *domain.Document, tagNames []string) *SearchDocument {
	return &SearchDocument{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Tags:      tagNames,
		CreatedAt: doc.CreatedAt.UnixMilli(),
		UpdatedAt: doc.UpdatedAt.UnixMilli(),
	}
}
