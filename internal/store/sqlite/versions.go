package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quillapp/quill-server/internal/domain"
	"github.com/quillapp/quill-server/internal/store"
)

// versionColumns is the ordered list of columns selected in version queries.
// Must match the scan order in scanVersion.
const versionColumns = `id, document_id, version_number, title, content, tags_snapshot, change_summary, created_at`

// scanVersion scans a sql.Row (or sql.Rows via its Scan method) into a domain.DocumentVersion.
func scanVersion(scanner interface{ Scan(dest ...any) error }) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion

	var createdAt string

	err := scanner.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.Title,
		&v.Content,
		&v.TagsSnapshot,
		&v.ChangeSummary,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// CreateVersion inserts a version snapshot.
// Returns store.ErrAlreadyExists when the (document, number) pair is taken.
func (s *Store) CreateVersion(ctx context.Context, v *domain.DocumentVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, version_number, title, content, tags_snapshot, change_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		v.Title,
		v.Content,
		v.TagsSnapshot,
		v.ChangeSummary,
		formatTime(v.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetVersion retrieves a specific version of a document.
// Returns store.ErrNotFound if no such snapshot exists.
func (s *Store) GetVersion(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE document_id = ? AND version_number = ?`,
		documentID, versionNumber)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVersions returns all retained versions of a document, newest first.
func (s *Store) ListVersions(ctx context.Context, documentID string) ([]*domain.DocumentVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM document_versions
		WHERE document_id = ?
		ORDER BY version_number DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.DocumentVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if versions == nil {
		versions = []*domain.DocumentVersion{}
	}
	return versions, nil
}

// CountVersions returns the number of retained snapshots for a document.
func (s *Store) CountVersions(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_versions WHERE document_id = ?`, documentID).Scan(&count)
	return count, err
}

// MaxVersionNumber returns the highest retained version number for a document,
// or 0 when the document has no snapshots.
func (s *Store) MaxVersionNumber(ctx context.Context, documentID string) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = ?`,
		documentID).Scan(&max)
	return max, err
}

// PruneVersions deletes all but the newest keep snapshots of a document.
// Returns the number of snapshots removed.
func (s *Store) PruneVersions(ctx context.Context, documentID string, keep int) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE document_id = ?
		AND id NOT IN (
			SELECT id FROM document_versions
			WHERE document_id = ?
			ORDER BY version_number DESC
			LIMIT ?
		)`, documentID, documentID, keep)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
