package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/quillapp/quill-server/internal/domain"
	apperrors "github.com/quillapp/quill-server/internal/errors"
	"github.com/quillapp/quill-server/internal/id"
	"github.com/quillapp/quill-server/internal/store"
)

// VersionService is the version ledger: it snapshots a document's state on
// every content-affecting change, prunes snapshots beyond the retention
// window, restores prior snapshots, and produces comparisons between them.
type VersionService struct {
	store     store.Store
	retention int
	logger    *slog.Logger
}

// NewVersionService creates a new version service.
// A non-positive retention falls back to the default window.
func NewVersionService(store store.Store, retention int, logger *slog.Logger) *VersionService {
	if retention <= 0 {
		retention = domain.MaxVersionsToKeep
	}
	return &VersionService{
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// Snapshot records a version of doc numbered by its CurrentVersion at call
// time, capturing title, content, and the deterministic tag-name
// serialization, then prunes beyond the retention window.
// Used on document creation, where the row carries no earlier version for a
// compare-and-swap to guard; mutation paths go through Record instead.
func (s *VersionService) Snapshot(ctx context.Context, doc *domain.Document, changeSummary string) (*domain.DocumentVersion, error) {
	version, err := s.buildVersion(ctx, doc, changeSummary)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateVersion(ctx, version); err != nil {
		return nil, err
	}
	if _, err := s.store.PruneVersions(ctx, doc.ID, s.retention); err != nil {
		return nil, err
	}

	s.logger.Info("version snapshot recorded",
		"document_id", doc.ID,
		"version", version.VersionNumber,
	)
	return version, nil
}

// Record persists doc (whose CurrentVersion the caller has already
// incremented) together with its snapshot in one atomic store step.
// A concurrent writer that got there first surfaces as Conflict.
func (s *VersionService) Record(ctx context.Context, doc *domain.Document, changeSummary string) (*domain.DocumentVersion, error) {
	version, err := s.buildVersion(ctx, doc, changeSummary)
	if err != nil {
		return nil, err
	}

	err = s.store.UpdateDocumentWithVersion(ctx, doc, version, s.retention)
	if apperrors.Is(err, store.ErrVersionConflict) {
		return nil, apperrors.Conflictf("document %s was modified concurrently", doc.ID)
	}
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("document %s not found", doc.ID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("version recorded",
		"document_id", doc.ID,
		"version", version.VersionNumber,
	)
	return version, nil
}

// History returns all retained versions of a document, most recent first.
func (s *VersionService) History(ctx context.Context, documentID string) ([]*domain.DocumentVersion, error) {
	if _, err := s.store.GetDocumentAny(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("document %s not found", documentID)
		}
		return nil, err
	}
	return s.store.ListVersions(ctx, documentID)
}

// Get returns a specific version of a document.
func (s *VersionService) Get(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error) {
	if _, err := s.store.GetDocumentAny(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("document %s not found", documentID)
		}
		return nil, err
	}

	version, err := s.store.GetVersion(ctx, documentID, versionNumber)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("version %d of document %s not found", versionNumber, documentID)
	}
	return version, err
}

// Restore overwrites the document's title and content from the target
// version, bumps its version counter, and records a fresh snapshot noting
// the restore source. Returns the target version, reflecting what was
// restored, not the newly created one.
func (s *VersionService) Restore(ctx context.Context, documentID string, versionNumber int) (*domain.DocumentVersion, error) {
	doc, err := s.store.GetDocumentAny(ctx, documentID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("document %s not found", documentID)
	}
	if err != nil {
		return nil, err
	}

	target, err := s.store.GetVersion(ctx, documentID, versionNumber)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("version %d of document %s not found", versionNumber, documentID)
	}
	if err != nil {
		return nil, err
	}

	doc.Title = target.Title
	doc.Content = target.Content
	doc.CurrentVersion++
	doc.Touch()

	summary := fmt.Sprintf("Restored from version %d", versionNumber)
	if _, err := s.Record(ctx, doc, summary); err != nil {
		return nil, err
	}

	s.logger.Info("document restored to version",
		"document_id", documentID,
		"restored_version", versionNumber,
		"new_version", doc.CurrentVersion,
	)
	return target, nil
}

// Compare produces a textual comparison between two versions of a document:
// title old/new when it changed, and a line-level diff of the content when
// it differs.
func (s *VersionService) Compare(ctx context.Context, documentID string, version1, version2 int) (string, error) {
	if _, err := s.store.GetDocumentAny(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return "", apperrors.NotFoundf("document %s not found", documentID)
		}
		return "", err
	}

	v1, err := s.store.GetVersion(ctx, documentID, version1)
	if apperrors.Is(err, store.ErrNotFound) {
		return "", apperrors.NotFoundf("version %d of document %s not found", version1, documentID)
	}
	if err != nil {
		return "", err
	}

	v2, err := s.store.GetVersion(ctx, documentID, version2)
	if apperrors.Is(err, store.ErrNotFound) {
		return "", apperrors.NotFoundf("version %d of document %s not found", version2, documentID)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Comparison between version %d and version %d\n\n", version1, version2)

	if v1.Title != v2.Title {
		b.WriteString("Title changed:\n")
		fmt.Fprintf(&b, "  - %s\n", v1.Title)
		fmt.Fprintf(&b, "  + %s\n\n", v2.Title)
	}

	if v1.Content != v2.Content {
		b.WriteString("Content changed:\n")
		fmt.Fprintf(&b, "  Version %d content length: %d characters\n", version1, len(v1.Content))
		fmt.Fprintf(&b, "  Version %d content length: %d characters\n\n", version2, len(v2.Content))
		b.WriteString(contentDiff(v1.Content, v2.Content))
	} else {
		b.WriteString("Content unchanged\n")
	}

	return b.String(), nil
}

// Prune deletes the oldest versions of a document beyond the retention
// window and returns how many were removed.
func (s *VersionService) Prune(ctx context.Context, documentID string) (int, error) {
	if _, err := s.store.GetDocumentAny(ctx, documentID); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return 0, apperrors.NotFoundf("document %s not found", documentID)
		}
		return 0, err
	}

	count, err := s.store.CountVersions(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if count <= s.retention {
		return 0, nil
	}

	pruned, err := s.store.PruneVersions(ctx, documentID, s.retention)
	if err != nil {
		return 0, err
	}

	s.logger.Info("versions pruned", "document_id", documentID, "pruned", pruned)
	return pruned, nil
}

// buildVersion assembles a snapshot of doc's current state, including the
// deterministic serialization of its tag names.
func (s *VersionService) buildVersion(ctx context.Context, doc *domain.Document, changeSummary string) (*domain.DocumentVersion, error) {
	if len(changeSummary) > domain.MaxSummaryLength {
		return nil, apperrors.Validationf("change summary must not exceed %d characters", domain.MaxSummaryLength)
	}

	tags, err := s.store.GetTagsForDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	return &domain.DocumentVersion{
		ID:            id.MustGenerate(id.PrefixVersion),
		DocumentID:    doc.ID,
		VersionNumber: doc.CurrentVersion,
		Title:         doc.Title,
		Content:       doc.Content,
		TagsSnapshot:  domain.SerializeTagNames(names),
		ChangeSummary: changeSummary,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// contentDiff renders a line-level diff between two content snapshots,
// unchanged lines prefixed with two spaces, removals with "- " and
// additions with "+ ".
func contentDiff(old, new string) string {
	dmp := diffmatchpatch.New()

	// Line-mode diff: map lines to runes, diff the runes, map back.
	chars1, chars2, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
