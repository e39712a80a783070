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

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, parent_id, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		parentID  sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&parentID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		t.ParentID = parentID.String
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists when the (name, parent) pair is taken,
// which is how creation races surface to callers.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, parent_id, created_at)
		VALUES (?, ?, ?, ?)`,
		t.ID,
		t.Name,
		nullString(t.ParentID),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByName retrieves a tag by its (name, parent) pair.
// An empty parentID looks up a root tag.
// Returns store.ErrNotFound if no such tag exists.
func (s *Store) GetTagByName(ctx context.Context, name, parentID string) (*domain.Tag, error) {
	var row *sql.Row
	if parentID == "" {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+tagColumns+` FROM tags WHERE name = ? AND parent_id IS NULL`, name)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+tagColumns+` FROM tags WHERE name = ? AND parent_id = ?`, name, parentID)
	}

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTag performs a full row update on an existing tag.
// Returns store.ErrAlreadyExists when a rename collides with a sibling,
// store.ErrNotFound if the tag does not exist.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, parent_id = ? WHERE id = ?`,
		t.Name,
		nullString(t.ParentID),
		t.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// DeleteTag removes a tag. The caller is responsible for checking that the
// tag has no children and no document associations first.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
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

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
}

// ListRootTags returns all tags without a parent, ordered by name.
func (s *Store) ListRootTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE parent_id IS NULL ORDER BY name ASC`)
}

// ListTagChildren returns the direct children of a tag, ordered by name.
func (s *Store) ListTagChildren(ctx context.Context, parentID string) ([]*domain.Tag, error) {
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE parent_id = ? ORDER BY name ASC`, parentID)
}

// CountTagChildren returns the number of direct children of a tag.
func (s *Store) CountTagChildren(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE parent_id = ?`, id).Scan(&count)
	return count, err
}

// SearchTags returns tags whose name contains term (case-insensitive), ordered by name.
func (s *Store) SearchTags(ctx context.Context, term string) ([]*domain.Tag, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return s.queryTags(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE LOWER(name) LIKE ? ESCAPE '\'
		ORDER BY name ASC`, pattern)
}

// CountDocumentsForTag returns the number of active documents carrying the tag.
func (s *Store) CountDocumentsForTag(ctx context.Context, tagID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM document_tags dt
		INNER JOIN documents d ON d.id = dt.document_id
		WHERE dt.tag_id = ? AND d.deleted_at IS NULL`, tagID).Scan(&count)
	return count, err
}

// AddTagToDocument associates a tag with a document. Idempotent.
func (s *Store) AddTagToDocument(ctx context.Context, documentID, tagID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO document_tags (document_id, tag_id, created_at)
		VALUES (?, ?, ?)`,
		documentID,
		tagID,
		formatTime(time.Now().UTC()),
	)
	return err
}

// RemoveTagFromDocument removes a tag from a document. Idempotent.
func (s *Store) RemoveTagFromDocument(ctx context.Context, documentID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM document_tags WHERE document_id = ? AND tag_id = ?`, documentID, tagID)
	return err
}

// SetDocumentTags replaces all tags for a document in a single transaction.
func (s *Store) SetDocumentTags(ctx context.Context, documentID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_tags WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete document_tags: %w", err)
	}

	now := formatTime(time.Now().UTC())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_tags (document_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			documentID,
			tagID,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert document_tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetTagsForDocument returns all tags on a document, ordered by name.
func (s *Store) GetTagsForDocument(ctx context.Context, documentID string) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `
		SELECT t.id, t.name, t.parent_id, t.created_at FROM tags t
		INNER JOIN document_tags dt ON dt.tag_id = t.id
		WHERE dt.document_id = ?
		ORDER BY t.name ASC`, documentID)
}

// GetDocumentIDsForTag returns all document IDs carrying the tag,
// including soft-deleted documents.
func (s *Store) GetDocumentIDsForTag(ctx context.Context, tagID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id FROM document_tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// queryTags runs a tag query and collects the results.
func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
