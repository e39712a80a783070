package service

import (
	"context"
	"log/slog"

	"github.com/quillapp/quill-server/internal/domain"
	"github.com/quillapp/quill-server/internal/search"
	"github.com/quillapp/quill-server/internal/store"
)

// SearchService bridges the store and the full-text index: it feeds active
// documents into the index, removes soft-deleted ones, and runs queries.
// Ranking belongs entirely to the index.
type SearchService struct {
	store  store.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store store.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// IndexDocument adds or updates a document in the search index, with its
// current tag names denormalized in.
func (s *SearchService) IndexDocument(ctx context.Context, doc *domain.Document) error {
	tags, err := s.store.GetTagsForDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	return s.index.IndexDocument(search.FromDomain(doc, names))
}

// RemoveDocument removes a document from the search index.
func (s *SearchService) RemoveDocument(id string) error {
	return s.index.DeleteDocument(id)
}

// Search executes a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = search.DefaultSearchParams().Limit
	}
	return s.index.Search(ctx, params)
}

// IndexedCount returns the number of documents currently in the index.
func (s *SearchService) IndexedCount() (uint64, error) {
	return s.index.DocumentCount()
}

// Reindex drops the index and rebuilds it from every active document in the
// store. Returns the number of documents indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}

	total := 0
	params := store.PaginationParams{Limit: 500}
	for {
		page, err := s.store.ListDocuments(ctx, params)
		if err != nil {
			return total, err
		}

		docs := make([]*search.SearchDocument, 0, len(page.Items))
		for _, doc := range page.Items {
			tags, err := s.store.GetTagsForDocument(ctx, doc.ID)
			if err != nil {
				return total, err
			}
			names := make([]string, 0, len(tags))
			for _, t := range tags {
				names = append(names, t.Name)
			}
			docs = append(docs, search.FromDomain(doc, names))
		}

		if err := s.index.IndexDocuments(docs); err != nil {
			return total, err
		}
		total += len(docs)

		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	s.logger.Info("search index rebuilt from store", "documents", total)
	return total, nil
}
