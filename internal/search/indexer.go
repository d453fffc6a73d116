package search

import (
	"context"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

// IndexBook adds or replaces a book in the index. Satisfies the store's
// search-indexer hook so writes flow into the index automatically.
func (s *SearchIndex) IndexBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.IndexDocument(BookToSearchDocument(book))
}

// DeleteBook removes a book from the index.
func (s *SearchIndex) DeleteBook(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DeleteDocument(bookID)
}

// IndexBooks bulk-indexes a book slice, used for startup reindexing.
func (s *SearchIndex) IndexBooks(ctx context.Context, books []*domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	docs := make([]*SearchDocument, len(books))
	for i, b := range books {
		docs[i] = BookToSearchDocument(b)
	}
	return s.IndexDocuments(docs)
}
