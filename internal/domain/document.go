// Package domain contains the core business entities and domain logic for the Quill knowledge base.
package domain

import "time"

// Limits applied to documents and their versions.
const (
	// MaxTitleLength is the maximum title length in characters.
	MaxTitleLength = 500
	// MaxContentSize is the maximum content size in bytes (1 MiB).
	MaxContentSize = 1048576
	// MaxSummaryLength is the maximum change-summary length in characters.
	MaxSummaryLength = 1000
)

// Document represents a note in the knowledge base.
// Documents are never physically removed — deletion sets DeletedAt and
// active-scoped queries exclude the record until it is restored.
// Tag associations live in the store's join table and are surfaced through
// queries rather than held as a collection on the entity.
type Document struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	CurrentVersion int        `json:"current_version"` // Starts at 1, bumped on every content-affecting change
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"` // nil ⇔ active
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new document.
func (d *Document) InitTimestamps() {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp to the current time.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
}

// IsDeleted returns true if this document has been soft-deleted.
// This is the single active/deleted predicate; call sites must not
// inspect DeletedAt directly.
func (d *Document) IsDeleted() bool {
	return d.DeletedAt != nil
}

// MarkDeleted soft-deletes the document by setting DeletedAt to now.
func (d *Document) MarkDeleted() {
	now := time.Now().UTC()
	d.DeletedAt = &now
	d.UpdatedAt = now
}

// Undelete returns the document to the active state.
func (d *Document) Undelete() {
	d.DeletedAt = nil
	d.Touch()
}
