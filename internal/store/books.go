package store

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/id"
	"github.com/readingroomapp/readingroom-server/internal/normalize"
	"github.com/readingroomapp/readingroom-server/internal/sse"
)

const (
	// Per-field result caps for prefix search. Title and author scans run
	// independently, so a merged result can hold up to twice this many.
	searchLimitPrimary = 15
	searchLimitManual  = 10

	// Queries shorter than this many runes return nothing.
	searchMinRunes = 2
)

// BookStatus selects a flag filter for ListBooksByStatus.
type BookStatus string

const (
	BookStatusRead     BookStatus = "read"
	BookStatusFavorite BookStatus = "favorite"
	BookStatusWishlist BookStatus = "wishlist"
)

// SortField selects the ordering for ListBooksSorted.
type SortField string

const (
	SortByAddedAt SortField = "added_at"
	SortByTitle   SortField = "title"
	SortByRating  SortField = "rating"
)

// AddBook inserts a book into the primary collection with a server-assigned ID.
// When the record carries an external catalog ID, a prior record with the same
// (owner, external ID) pair fails the insert with a duplicate-book error
// carrying the conflicting title.
func (s *Store) AddBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if strings.TrimSpace(book.OwnerID) == "" {
		return nil, apperrors.Validation("owner id is required")
	}

	if book.ExternalID != "" {
		existing, err := s.Books.GetByIndex(ctx, "ext", book.OwnerID+":"+book.ExternalID)
		if err == nil {
			return nil, apperrors.DuplicateBook(existing.Title)
		}
		if !apperrors.Is(err, ErrNotFound) {
			return nil, apperrors.Internal("check duplicate book").WithCause(err)
		}
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, apperrors.Internal("generate book id").WithCause(err)
	}
	book.ID = bookID
	book.InitTimestamps()
	book.Normalize()

	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		if apperrors.Is(err, ErrAlreadyExists) {
			// Lost a race on the external-ID index. Re-read for the title.
			if existing, lookupErr := s.Books.GetByIndex(ctx, "ext", book.OwnerID+":"+book.ExternalID); lookupErr == nil {
				return nil, apperrors.DuplicateBook(existing.Title)
			}
			return nil, apperrors.DuplicateBook(book.Title)
		}
		return nil, apperrors.Internal("create book").WithCause(err)
	}

	s.eventEmitter.Emit(sse.NewBookCreatedEvent(book, domain.BookSourcePrimary))
	s.indexBookAsync(book)

	return book, nil
}

// AddManualBook writes a book into the manual collection. A blank ID gets a
// generated UUID. The caller's own existing record at the same ID is
// overwritten, not rejected: manual entry is an upsert, unlike AddBook.
// An ID held by another user's record fails with a conflict.
func (s *Store) AddManualBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if strings.TrimSpace(book.OwnerID) == "" {
		return nil, apperrors.Validation("owner id is required")
	}

	if strings.TrimSpace(book.ID) == "" {
		book.ID = uuid.NewString()
	}

	existing, err := s.ManualBooks.Get(ctx, book.ID)
	if err != nil && !apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.Internal("check manual book").WithCause(err)
	}
	existed := err == nil

	// The upsert may only replace the caller's own record. A slot held
	// by another user is reported as a conflict, the same as any other
	// unusable client-assigned ID.
	if existed && existing.OwnerID != book.OwnerID {
		return nil, apperrors.Conflict("book id already in use")
	}

	if existed {
		book.Touch()
	} else {
		book.InitTimestamps()
	}
	book.Normalize()

	if err := s.ManualBooks.Upsert(ctx, book.ID, book); err != nil {
		return nil, apperrors.Internal("upsert manual book").WithCause(err)
	}

	if existed {
		s.eventEmitter.Emit(sse.NewBookUpdatedEvent(book, domain.BookSourceManual))
	} else {
		s.eventEmitter.Emit(sse.NewBookCreatedEvent(book, domain.BookSourceManual))
	}
	s.indexBookAsync(book)

	return book, nil
}

// UpdateBook writes a book back under its existing ID. The primary collection
// is tried first; a miss there falls through to the manual collection. The
// fallback is write-attempt based, there is no prior lookup of which
// collection holds the record.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if strings.TrimSpace(book.ID) == "" {
		return nil, apperrors.Validation("book id is required")
	}

	book.Touch()
	book.Normalize()

	source := domain.BookSourcePrimary
	err := s.Books.Update(ctx, book.ID, book)
	if apperrors.Is(err, ErrNotFound) {
		source = domain.BookSourceManual
		err = s.ManualBooks.Update(ctx, book.ID, book)
	}
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFoundf("book %s not found", book.ID)
	}
	if err != nil {
		return nil, apperrors.Internal("update book").WithCause(err)
	}

	s.eventEmitter.Emit(sse.NewBookUpdatedEvent(book, source))
	s.indexBookAsync(book)

	return book, nil
}

// DeleteBook removes a book from whichever collection holds it. Deletes are
// idempotent; a miss in both collections logs a warning but is not an error.
// A record owned by another user is treated exactly like an absent one, so
// the delete becomes a no-op rather than reaching across accounts.
func (s *Store) DeleteBook(ctx context.Context, ownerID, bookID string) error {
	_, err := s.GetBook(ctx, ownerID, bookID)
	if apperrors.Is(err, ErrNotFound) {
		if s.logger != nil {
			s.logger.Warn("delete for book absent from both collections", "book_id", bookID, "owner_id", ownerID)
		}
		return nil
	}
	if err != nil {
		return apperrors.Internal("check book").WithCause(err)
	}

	if err := s.Books.Delete(ctx, bookID); err != nil {
		return apperrors.Internal("delete book").WithCause(err)
	}
	if err := s.ManualBooks.Delete(ctx, bookID); err != nil {
		return apperrors.Internal("delete manual book").WithCause(err)
	}

	s.eventEmitter.Emit(sse.NewBookDeletedEvent(ownerID, bookID, time.Now()))
	s.deleteBookIndexAsync(bookID)

	return nil
}

// GetBook retrieves a book by ID, primary collection first, manual fallback.
// Records belonging to another user are reported as not found rather than
// forbidden, so book IDs cannot be probed across accounts.
func (s *Store) GetBook(ctx context.Context, ownerID, bookID string) (*domain.Book, error) {
	book, err := s.Books.Get(ctx, bookID)
	if apperrors.Is(err, ErrNotFound) {
		book, err = s.ManualBooks.Get(ctx, bookID)
	}
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFoundf("book %s not found", bookID)
	}
	if err != nil {
		return nil, apperrors.Internal("get book").WithCause(err)
	}

	if book.OwnerID != ownerID {
		return nil, apperrors.NotFoundf("book %s not found", bookID)
	}

	return book, nil
}

// GetBookByExternalID looks up a primary-collection book by its catalog
// identifier within one user's library.
func (s *Store) GetBookByExternalID(ctx context.Context, ownerID, externalID string) (*domain.Book, error) {
	book, err := s.Books.GetByIndex(ctx, "ext", ownerID+":"+externalID)
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFoundf("book with catalog id %s not found", externalID)
	}
	if err != nil {
		return nil, apperrors.Internal("get book by external id").WithCause(err)
	}
	return book, nil
}

// ListBooks returns every book a user owns, both collections merged.
func (s *Store) ListBooks(ctx context.Context, ownerID string) ([]*domain.Book, error) {
	primary, err := s.Books.ListByIndexPrefix(ctx, "owner", ownerID+":", 0)
	if err != nil {
		return nil, apperrors.Internal("list books").WithCause(err)
	}
	manual, err := s.ManualBooks.ListByIndexPrefix(ctx, "owner", ownerID+":", 0)
	if err != nil {
		return nil, apperrors.Internal("list manual books").WithCause(err)
	}
	return append(primary, manual...), nil
}

// ListAllBooks returns every book in the store across all owners.
// Used for full-text index rebuilds.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	var all []*domain.Book
	for _, entity := range []*Entity[domain.Book]{s.Books, s.ManualBooks} {
		for book, err := range entity.List(ctx) {
			if err != nil {
				return nil, apperrors.Internal("list all books").WithCause(err)
			}
			all = append(all, book)
		}
	}
	return all, nil
}

// ListBooksByStatus returns the user's books carrying the given flag.
// The flags are independent booleans: a favorite can also be wishlisted,
// so the same record may appear under more than one status.
func (s *Store) ListBooksByStatus(ctx context.Context, ownerID string, status BookStatus) ([]*domain.Book, error) {
	books, err := s.ListBooks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	filtered := books[:0:0]
	for _, b := range books {
		switch status {
		case BookStatusRead:
			if b.IsRead {
				filtered = append(filtered, b)
			}
		case BookStatusFavorite:
			if b.IsFavorite {
				filtered = append(filtered, b)
			}
		case BookStatusWishlist:
			if b.IsWishlist {
				filtered = append(filtered, b)
			}
		default:
			return nil, apperrors.Validationf("unknown book status %q", status)
		}
	}
	return filtered, nil
}

// ListBooksSorted returns the user's books ordered by the given field.
// Libraries are small enough that sorting in memory beats maintaining
// per-field index keys.
func (s *Store) ListBooksSorted(ctx context.Context, ownerID string, field SortField, descending bool) ([]*domain.Book, error) {
	books, err := s.ListBooks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var less func(a, b *domain.Book) bool
	switch field {
	case SortByAddedAt:
		less = func(a, b *domain.Book) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortByTitle:
		less = func(a, b *domain.Book) bool { return a.TitleKey < b.TitleKey }
	case SortByRating:
		less = func(a, b *domain.Book) bool { return a.Rating < b.Rating }
	default:
		return nil, apperrors.Validationf("unknown sort field %q", field)
	}

	sort.SliceStable(books, func(i, j int) bool {
		if descending {
			return less(books[j], books[i])
		}
		return less(books[i], books[j])
	})

	return books, nil
}

// SearchBooks runs a case-folded prefix search over the primary collection.
// Title and author indexes are scanned independently and the results merged,
// deduplicated by ID: the store has no OR query across two fields.
func (s *Store) SearchBooks(ctx context.Context, ownerID, query string) ([]*domain.Book, error) {
	return s.searchCollection(ctx, s.Books, ownerID, query, searchLimitPrimary)
}

// SearchManualBooks is SearchBooks over the manual collection.
func (s *Store) SearchManualBooks(ctx context.Context, ownerID, query string) ([]*domain.Book, error) {
	return s.searchCollection(ctx, s.ManualBooks, ownerID, query, searchLimitManual)
}

func (s *Store) searchCollection(ctx context.Context, books *Entity[domain.Book], ownerID, query string, limit int) ([]*domain.Book, error) {
	key := normalize.SearchKey(query)
	if utf8.RuneCountInString(key) < searchMinRunes {
		return nil, nil
	}

	byTitle, err := books.ListByIndexPrefix(ctx, "title", ownerID+":"+key, limit)
	if err != nil {
		return nil, apperrors.Internal("search books by title").WithCause(err)
	}
	byAuthor, err := books.ListByIndexPrefix(ctx, "author", ownerID+":"+key, limit)
	if err != nil {
		return nil, apperrors.Internal("search books by author").WithCause(err)
	}

	seen := make(map[string]bool, len(byTitle)+len(byAuthor))
	merged := make([]*domain.Book, 0, len(byTitle)+len(byAuthor))
	for _, b := range byTitle {
		if !seen[b.ID] {
			seen[b.ID] = true
			merged = append(merged, b)
		}
	}
	for _, b := range byAuthor {
		if !seen[b.ID] {
			seen[b.ID] = true
			merged = append(merged, b)
		}
	}

	return merged, nil
}

// indexBookAsync pushes a book into the full-text index without blocking the write.
func (s *Store) indexBookAsync(book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.IndexBook(context.Background(), book); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index book for search", "book_id", book.ID, "error", err)
			}
		}
	}()
}

// deleteBookIndexAsync removes a book from the full-text index without blocking.
func (s *Store) deleteBookIndexAsync(bookID string) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.DeleteBook(context.Background(), bookID); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
			}
		}
	}()
}
