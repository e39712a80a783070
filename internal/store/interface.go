// Package store defines the persistence contract for the Quill knowledge base.
// Implementations own the physical layout (tables, indexes, join tables); the
// core operates only through these operations and the invariants they promise.
package store

import (
	"context"
	"time"

	"github.com/quillapp/quill-server/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// Implementations must guarantee:
//   - UpdateDocumentWithVersion is atomic per document: the current-version
//     compare-and-swap, the snapshot insert, and the retention prune either
//     all happen or none do. Concurrent writers to one document cannot
//     assign the same version number; the loser gets ErrVersionConflict.
//   - CreateTag enforces (name, parent) uniqueness and reports a violation
//     as ErrAlreadyExists, so callers can resolve creation races by lookup.
type Store interface {
	// Lifecycle
	Close() error

	// Documents
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)    // active-scoped
	GetDocumentAny(ctx context.Context, id string) (*domain.Document, error) // ignores soft-delete
	UpdateDocument(ctx context.Context, doc *domain.Document) error
	ListDocuments(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Document], error)
	ListDocumentsByTag(ctx context.Context, tagID string, params PaginationParams) (*PaginatedResult[*domain.Document], error)
	ListDocumentsUpdatedBetween(ctx context.Context, start, end time.Time, params PaginationParams) (*PaginatedResult[*domain.Document], error)
	CountDocuments(ctx context.Context) (int, error)

	// UpdateDocumentWithVersion persists doc (whose CurrentVersion has already
	// been incremented), inserts the snapshot, and prunes versions beyond keep,
	// all in one transaction guarded by a CAS on the previous version number.
	UpdateDocumentWithVersion(ctx context.Context, doc *domain.Document, version *domain.DocumentVersion, keep int) error

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, name, parentID string) (*domain.Tag, error) // parentID "" means root
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	ListRootTags(ctx context.Context) ([]*domain.Tag, error)
	ListTagChildren(ctx context.Context, parentID string) ([]*domain.Tag, error)
	CountTagChildren(ctx context.Context, id string) (int, error)
	SearchTags(ctx context.Context, term string) ([]*domain.Tag, error)
	CountDocumentsForTag(ctx context.Context, tagID string) (int, error) // active documents only

	// Tag↔document association (the join table; all calls are idempotent)
	AddTagToDocument(ctx context.Context, documentID, tagID string) error
	RemoveTagFromDocument(ctx context.Context, documentID, tagID string) error
	SetDocumentTags(ctx context.Context, documentID string, tagIDs []string) error
	GetTagsForDocument(ctx context.Context, documentID string) ([]*domain.Tag, error)
	GetDocumentIDsForTag(ctx context.Context, tagID string) ([]string, error)

	// Versions
	CreateVersion(ctx context.Context, v *domain.DocumentVersion) error
	GetVersion(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error)
	ListVersions(ctx context.Context, documentID string) ([]*domain.DocumentVersion, error) // version number descending
	CountVersions(ctx context.Context, documentID string) (int, error)
	MaxVersionNumber(ctx context.Context, documentID string) (int, error)
	PruneVersions(ctx context.Context, documentID string, keep int) (int, error)
}
