package domain

import "time"

// Tag limits.
const (
	// MaxTagNameLength is the maximum tag name length in characters.
	MaxTagNameLength = 100
	// MaxHierarchyDepth is the maximum number of ancestor hops a tag may have.
	// A tag whose ancestor chain already has this many levels cannot receive a child.
	MaxHierarchyDepth = 5
)

// Tag represents a label for categorizing documents.
// Tags form a hierarchy: the parent is stored as a foreign key and children
// are computed via queries — there are no live back-reference collections.
// The (Name, ParentID) pair is unique: two tags may share a name only under
// different parents.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"` // Empty for root tags
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot returns true if this tag has no parent.
func (t *Tag) IsRoot() bool {
	return t.ParentID == ""
}

// TagNode is a tag together with its children, nested recursively.
// Used for hierarchy views; children are ordered by name at every level.
type TagNode struct {
	Tag
	DocumentCount int        `json:"document_count"` // Active documents carrying this tag
	Children      []*TagNode `json:"children,omitempty"`
}

// DocumentTag represents the many-to-many relationship between documents and tags.
// It is owned entirely by the persistence layer; the core mutates it only through
// associate/disassociate calls.
type DocumentTag struct {
	DocumentID string    `json:"document_id"`
	TagID      string    `json:"tag_id"`
	CreatedAt  time.Time `json:"created_at"`
}
