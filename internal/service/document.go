package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/quillapp/quill-server/internal/domain"
	apperrors "github.com/quillapp/quill-server/internal/errors"
	"github.com/quillapp/quill-server/internal/id"
	"github.com/quillapp/quill-server/internal/store"
	"github.com/quillapp/quill-server/internal/validation"
)

// DocumentService is the entry point for all document mutations. It resolves
// tags through the TagService, pairs every content-affecting change with
// exactly one new version through the VersionService, and keeps the search
// index in step with the active set.
//
// State machine per document: Active → (SoftDelete) → Deleted → (Restore) →
// Active. No other states.
type DocumentService struct {
	store          store.Store
	tags           *TagService
	versions       *VersionService
	search         *SearchService // optional; nil disables indexing
	validator      *validation.Validator
	maxContentSize int
	logger         *slog.Logger
}

// NewDocumentService creates a new document service.
// A non-positive maxContentSize falls back to the default limit.
func NewDocumentService(
	store store.Store,
	tags *TagService,
	versions *VersionService,
	search *SearchService,
	maxContentSize int,
	logger *slog.Logger,
) *DocumentService {
	if maxContentSize <= 0 {
		maxContentSize = domain.MaxContentSize
	}
	return &DocumentService{
		store:          store,
		tags:           tags,
		versions:       versions,
		search:         search,
		validator:      validation.New(),
		maxContentSize: maxContentSize,
		logger:         logger,
	}
}

// CreateDocumentRequest carries the fields for creating a document.
type CreateDocumentRequest struct {
	Title   string   `json:"title" validate:"required,max=500"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateDocumentRequest carries a partial update. Nil fields are left
// unchanged; a non-nil empty Tags slice clears all tag associations.
type UpdateDocumentRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,max=500"`
	Content       *string  `json:"content,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ChangeSummary string   `json:"change_summary,omitempty" validate:"omitempty,max=1000"`
}

// Create validates and persists a new document with CurrentVersion 1,
// resolves its tag names root-scoped, records the initial snapshot, and
// indexes it for search.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (*domain.Document, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validateContentSize(req.Content); err != nil {
		return nil, err
	}

	tagIDs, err := s.resolveTagNames(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:             id.MustGenerate(id.PrefixDocument),
		Title:          req.Title,
		Content:        req.Content,
		CurrentVersion: 1,
	}
	doc.InitTimestamps()

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if len(tagIDs) > 0 {
		if err := s.store.SetDocumentTags(ctx, doc.ID, tagIDs); err != nil {
			return nil, err
		}
	}

	if _, err := s.versions.Snapshot(ctx, doc, "Initial version"); err != nil {
		return nil, err
	}

	s.indexForSearch(ctx, doc)

	s.logger.Info("document created", "document_id", doc.ID, "title", doc.Title, "tags", len(tagIDs))
	return doc, nil
}

// Get returns an active document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("document %s not found", documentID)
	}
	return doc, err
}

// List returns a page of active documents in stable ID order.
func (s *DocumentService) List(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()
	return s.store.ListDocuments(ctx, params)
}

// ListByTag returns a page of active documents carrying the named root tag.
func (s *DocumentService) ListByTag(ctx context.Context, tagName string, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()

	tag, err := s.store.GetTagByName(ctx, strings.TrimSpace(tagName), "")
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("tag %q not found", tagName)
	}
	if err != nil {
		return nil, err
	}

	return s.store.ListDocumentsByTag(ctx, tag.ID, params)
}

// ListUpdatedBetween returns a page of active documents last updated within
// the given range.
func (s *DocumentService) ListUpdatedBetween(ctx context.Context, start, end time.Time, params store.PaginationParams) (*store.PaginatedResult[*domain.Document], error) {
	params.Validate()
	if end.Before(start) {
		return nil, apperrors.Validation("end of range must not precede start")
	}
	return s.store.ListDocumentsUpdatedBetween(ctx, start, end, params)
}

// Count returns the number of active documents.
func (s *DocumentService) Count(ctx context.Context) (int, error) {
	return s.store.CountDocuments(ctx)
}

// Tags returns the tags attached to an active document, ordered by name.
func (s *DocumentService) Tags(ctx context.Context, documentID string) ([]*domain.Tag, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetTagsForDocument(ctx, documentID)
}

// Update applies a partial update to an active document. Only fields present
// in the request are touched; a change to title, content, or the tag set
// bumps the version counter and records exactly one snapshot. An update that
// changes nothing returns the document unchanged and writes no version.
func (s *DocumentService) Update(ctx context.Context, documentID string, req UpdateDocumentRequest) (*domain.Document, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("document %s not found", documentID)
	}
	if err != nil {
		return nil, err
	}

	changed := false

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" && *req.Title != doc.Title {
		doc.Title = *req.Title
		changed = true
	}

	if req.Content != nil && *req.Content != "" {
		if err := s.validateContentSize(*req.Content); err != nil {
			return nil, err
		}
		if *req.Content != doc.Content {
			doc.Content = *req.Content
			changed = true
		}
	}

	if req.Tags != nil {
		tagIDs, err := s.resolveTagNames(ctx, req.Tags)
		if err != nil {
			return nil, err
		}

		current, err := s.store.GetTagsForDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if !sameTagSet(current, tagIDs) {
			if err := s.store.SetDocumentTags(ctx, documentID, tagIDs); err != nil {
				return nil, err
			}
			changed = true
		}
	}

	if !changed {
		return doc, nil
	}

	doc.CurrentVersion++
	doc.Touch()
	if _, err := s.versions.Record(ctx, doc, req.ChangeSummary); err != nil {
		return nil, err
	}

	s.indexForSearch(ctx, doc)

	s.logger.Info("document updated", "document_id", doc.ID, "version", doc.CurrentVersion)
	return doc, nil
}

// SoftDelete marks an active document as deleted. No version is recorded;
// the document leaves the search index until restored.
func (s *DocumentService) SoftDelete(ctx context.Context, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if apperrors.Is(err, store.ErrNotFound) {
		return apperrors.NotFoundf("document %s not found", documentID)
	}
	if err != nil {
		return err
	}

	doc.MarkDeleted()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.RemoveDocument(doc.ID); err != nil {
			s.logger.Warn("failed to remove document from search index", "document_id", doc.ID, "error", err)
		}
	}

	s.logger.Info("document soft-deleted", "document_id", doc.ID)
	return nil
}

// Restore returns a soft-deleted document to the active state with its
// title, content, and tags exactly as they were. No version is recorded.
// Fails with InvalidState if the document is not currently deleted.
func (s *DocumentService) Restore(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocumentAny(ctx, documentID)
	if apperrors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFoundf("document %s not found", documentID)
	}
	if err != nil {
		return nil, err
	}

	if !doc.IsDeleted() {
		return nil, apperrors.InvalidState("document is not deleted")
	}

	doc.Undelete()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.indexForSearch(ctx, doc)

	s.logger.Info("document restored", "document_id", doc.ID)
	return doc, nil
}

// resolveTagNames resolves names to tag IDs via root-scoped ResolveOrCreate,
// trimming whitespace and skipping blanks. Duplicate names collapse.
func (s *DocumentService) resolveTagNames(ctx context.Context, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		tag, err := s.tags.ResolveOrCreate(ctx, name, "")
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// indexForSearch is a best-effort index update; a search failure never
// fails the mutation that triggered it.
func (s *DocumentService) indexForSearch(ctx context.Context, doc *domain.Document) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexDocument(ctx, doc); err != nil {
		s.logger.Warn("failed to index document for search", "document_id", doc.ID, "error", err)
	}
}

func (s *DocumentService) validateContentSize(content string) error {
	if len(content) > s.maxContentSize {
		return apperrors.Validationf("content size %d exceeds the maximum of %d bytes", len(content), s.maxContentSize)
	}
	return nil
}

// sameTagSet reports whether the current tags cover exactly the given IDs.
func sameTagSet(current []*domain.Tag, ids []string) bool {
	if len(current) != len(ids) {
		return false
	}
	have := make(map[string]struct{}, len(current))
	for _, t := range current {
		have[t.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}
