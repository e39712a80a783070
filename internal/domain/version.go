package domain

import (
	"sort"
	"strings"
	"time"
)

// MaxVersionsToKeep is the retention window: the number of version snapshots
// kept per document. Older snapshots are pruned, oldest first.
const MaxVersionsToKeep = 10

// DocumentVersion is an immutable snapshot of a document's title, content,
// and tag names at a point in time. Version numbers are strictly increasing
// and contiguous with the owning document's CurrentVersion counter.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"` // Immutable after creation
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	TagsSnapshot  string    `json:"tags_snapshot,omitempty"`
	ChangeSummary string    `json:"change_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TagNames parses the serialized tag snapshot back into names.
// Returns nil for an empty snapshot.
func (v *DocumentVersion) TagNames() []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(v.TagsSnapshot, "["), "]")
	if inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

// SerializeTagNames produces the deterministic snapshot form of a tag set:
// names sorted, comma-joined, wrapped in brackets. Returns "" for no tags.
func SerializeTagNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return "[" + strings.Join(sorted, ",") + "]"
}
