package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/quillapp/quill-server/internal/domain"
	"github.com/quillapp/quill-server/internal/store"
)

// documentColumns is the ordered list of columns selected in document queries.
// Must match the scan order in scanDocument.
const documentColumns = `id, title, content, current_version, created_at, updated_at, deleted_at`

// scanDocument scans a sql.Row (or sql.Rows via its Scan method) into a domain.Document.
func scanDocument(scanner interface{ Scan(dest ...any) error }) (*domain.Document, error) {
	var d domain.Document

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&d.ID,
		&d.Title,
		&d.Content,
		&d.CurrentVersion,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	d.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// CreateDocument inserts a new document.
// Returns store.ErrAlreadyExists on a duplicate ID.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, current_version, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.CurrentVersion,
		formatTime(doc.CreatedAt),
		formatTime(doc.UpdatedAt),
		nullTimeString(doc.DeletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetDocument retrieves an active document by ID.
// Returns store.ErrNotFound if the document does not exist or is soft-deleted.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND deleted_at IS NULL`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDocumentAny retrieves a document by ID regardless of soft-delete state.
// Returns store.ErrNotFound if the document does not exist.
func (s *Store) GetDocumentAny(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDocument performs a full row update on an existing document.
// Returns store.ErrNotFound if the document does not exist.
func (s *Store) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			title = ?,
			content = ?,
			current_version = ?,
			updated_at = ?,
			deleted_at = ?
		WHERE id = ?`,
		doc.Title,
		doc.Content,
		doc.CurrentVersion,
		formatTime(doc.UpdatedAt),
		nullTimeString(doc.DeletedAt),
		doc.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateDocumentWithVersion persists a version-bumped document together with
// its snapshot and prunes versions beyond keep, all in one transaction.
// The document row update is guarded by a compare-and-swap on the previous
// version number so concurrent writers cannot assign the same version.
func (s *Store) UpdateDocumentWithVersion(ctx context.Context, doc *domain.Document, version *domain.DocumentVersion, keep int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			title = ?,
			content = ?,
			current_version = ?,
			updated_at = ?,
			deleted_at = ?
		WHERE id = ? AND current_version = ?`,
		doc.Title,
		doc.Content,
		doc.CurrentVersion,
		formatTime(doc.UpdatedAt),
		nullTimeString(doc.DeletedAt),
		doc.ID,
		doc.CurrentVersion-1,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing document from a lost race.
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE id = ?`, doc.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, version_number, title, content, tags_snapshot, change_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.Title,
		version.Content,
		version.TagsSnapshot,
		version.ChangeSummary,
		formatTime(version.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	// Retention: keep the newest `keep` versions. The just-inserted snapshot
	// carries the highest number, so the current version always survives.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE document_id = ? AND version_number NOT IN (
			SELECT version_number FROM document_versions
			WHERE document_id = ?
			ORDER BY version_number DESC
			LIMIT ?
		)`,
		doc.ID, doc.ID, keep)
	if err != nil {
		return fmt.Errorf("prune versions: %w", err)
	}

	return tx.Commit()
}

// ListDocuments returns a page of active documents ordered by ID.
func (s *Store) ListDocuments(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()
	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE deleted_at IS NULL AND id > ?
		ORDER BY id ASC
		LIMIT ?`,
		after, params.Limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocumentPage(rows, params.Limit)
}

// ListDocumentsByTag returns a page of active documents carrying the tag, ordered by ID.
func (s *Store) ListDocumentsByTag(ctx context.Context, tagID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()
	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedDocumentColumns+` FROM documents d
		INNER JOIN document_tags dt ON dt.document_id = d.id
		WHERE dt.tag_id = ? AND d.deleted_at IS NULL AND d.id > ?
		ORDER BY d.id ASC
		LIMIT ?`,
		tagID, after, params.Limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocumentPage(rows, params.Limit)
}

// ListDocumentsUpdatedBetween returns a page of active documents whose
// last update falls in [start, end], ordered by ID.
func (s *Store) ListDocumentsUpdatedBetween(ctx context.Context, start, end time.Time, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()
	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE deleted_at IS NULL AND updated_at BETWEEN ? AND ? AND id > ?
		ORDER BY id ASC
		LIMIT ?`,
		formatTime(start), formatTime(end), after, params.Limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocumentPage(rows, params.Limit)
}

// CountDocuments returns the number of active documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}

// prefixedDocumentColumns qualifies documentColumns with the d alias for joins.
const prefixedDocumentColumns = `d.id, d.title, d.content, d.current_version, d.created_at, d.updated_at, d.deleted_at`

// collectDocumentPage drains up to limit+1 rows into a paginated result.
func collectDocumentPage(rows *sql.Rows, limit int) (*store.PaginatedResult[*domain.Document], error) {
	docs := make([]*domain.Document, 0, limit)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Document]{Items: docs}
	if len(docs) > limit {
		result.Items = docs[:limit]
		result.HasMore = true
		result.NextCursor = store.EncodeCursor(docs[limit-1].ID)
	}
	return result, nil
}
