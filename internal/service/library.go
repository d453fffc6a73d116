package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/media/covers"
	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/search"
	"github.com/readingroomapp/readingroom-server/internal/store"
	"github.com/readingroomapp/readingroom-server/internal/uploader"
)

// AddOutcome describes what a reconciling add actually did.
type AddOutcome string

const (
	// OutcomeAdded means a new record was created.
	OutcomeAdded AddOutcome = "added"
	// OutcomeAlreadyInLibrary means the book was present and untouched.
	OutcomeAlreadyInLibrary AddOutcome = "already_in_library"
	// OutcomeAlreadyInWishlist means the book was already wishlisted.
	OutcomeAlreadyInWishlist AddOutcome = "already_in_wishlist"
	// OutcomeWishlisted means an existing record was flipped onto the wishlist.
	OutcomeWishlisted AddOutcome = "wishlisted"
)

// AddResult pairs the stored record with the reconciliation outcome.
type AddResult struct {
	Book    *domain.Book `json:"book"`
	Outcome AddOutcome   `json:"outcome"`
}

// LibraryService orchestrates book operations: reconciling adds, updates,
// catalog search, full-text search, and cover uploads.
type LibraryService struct {
	store       *store.Store
	catalog     *catalog.Aggregator
	searchIndex *search.SearchIndex
	uploader    *uploader.Client
	processor   *images.Processor
	coverCache  *covers.Downloader
	logger      *slog.Logger
}

// NewLibraryService creates a new library service.
// searchIndex, uploader, and coverCache may be nil when those features
// are disabled.
func NewLibraryService(
	st *store.Store,
	agg *catalog.Aggregator,
	searchIndex *search.SearchIndex,
	up *uploader.Client,
	processor *images.Processor,
	coverCache *covers.Downloader,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		store:       st,
		catalog:     agg,
		searchIndex: searchIndex,
		uploader:    up,
		processor:   processor,
		coverCache:  coverCache,
		logger:      logger,
	}
}

// cacheCoverAsync fetches the book's external cover into local storage in
// the background. The book record picks up a blur hash once the bytes land.
func (s *LibraryService) cacheCoverAsync(book *domain.Book) {
	if s.coverCache == nil || book.CoverURL == "" {
		return
	}
	bookID, ownerID, coverURL := book.ID, book.OwnerID, book.CoverURL

	go func() {
		result := s.coverCache.Download(context.Background(), bookID, coverURL)
		if !result.Success || result.BlurHash == "" {
			return
		}

		// Refetch rather than reuse: the record may have changed while
		// the download was in flight.
		fresh, err := s.store.GetBook(context.Background(), ownerID, bookID)
		if err != nil {
			return
		}
		fresh.CoverBlurHash = result.BlurHash
		fresh.Touch()
		if _, err := s.store.UpdateBook(context.Background(), fresh); err != nil {
			s.logger.Warn("failed to record cover blur hash", "book_id", bookID, "error", err)
		}
	}()
}

// findExisting looks up the user's record for a book, by external catalog ID
// when present, by record ID otherwise. A clean miss returns (nil, nil).
func (s *LibraryService) findExisting(ctx context.Context, userID string, book *domain.Book) (*domain.Book, error) {
	var existing *domain.Book
	var err error
	switch {
	case book.ExternalID != "":
		existing, err = s.store.GetBookByExternalID(ctx, userID, book.ExternalID)
	case book.ID != "":
		existing, err = s.store.GetBook(ctx, userID, book.ID)
	default:
		return nil, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up existing book: %w", err)
	}
	return existing, nil
}

// AddToLibrary adds a book to the user's library. If the same work is
// already present the call is a no-op reporting the existing record.
func (s *LibraryService) AddToLibrary(ctx context.Context, userID string, book *domain.Book) (*AddResult, error) {
	book.OwnerID = userID

	existing, err := s.findExisting(ctx, userID, book)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AddResult{Book: existing, Outcome: OutcomeAlreadyInLibrary}, nil
	}

	book.IsWishlist = false
	created, err := s.store.AddBook(ctx, book)
	if err != nil {
		// Lost a race against a concurrent add of the same work.
		if errors.Is(err, apperrors.ErrDuplicateBook) {
			if dup, dupErr := s.findExisting(ctx, userID, book); dupErr == nil && dup != nil {
				return &AddResult{Book: dup, Outcome: OutcomeAlreadyInLibrary}, nil
			}
		}
		return nil, err
	}

	s.cacheCoverAsync(created)
	return &AddResult{Book: created, Outcome: OutcomeAdded}, nil
}

// AddToWishlist puts a book on the user's wishlist. A record already in the
// library is flipped onto the wishlist rather than duplicated; a record
// already wishlisted is left alone. The lookup and the insert are separate
// operations, so two concurrent calls for the same new work can still race
// into the store's duplicate check.
func (s *LibraryService) AddToWishlist(ctx context.Context, userID string, book *domain.Book) (*AddResult, error) {
	book.OwnerID = userID

	existing, err := s.findExisting(ctx, userID, book)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.IsWishlist {
			return &AddResult{Book: existing, Outcome: OutcomeAlreadyInWishlist}, nil
		}
		existing.IsWishlist = true
		existing.Touch()
		updated, err := s.store.UpdateBook(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("flip book onto wishlist: %w", err)
		}
		return &AddResult{Book: updated, Outcome: OutcomeWishlisted}, nil
	}

	book.IsWishlist = true
	book.IsRead = false
	book.IsFavorite = false
	created, err := s.store.AddBook(ctx, book)
	if err != nil {
		return nil, err
	}
	s.cacheCoverAsync(created)
	return &AddResult{Book: created, Outcome: OutcomeAdded}, nil
}

// AddManual stores a hand-entered book in the manual collection.
// The client may supply its own ID; resubmitting the same ID overwrites.
func (s *LibraryService) AddManual(ctx context.Context, userID string, book *domain.Book) (*domain.Book, error) {
	book.OwnerID = userID
	return s.store.AddManualBook(ctx, book)
}

// Update persists field changes to a book in either collection. Flipping
// IsRead on stamps the read time; flipping it off clears it.
func (s *LibraryService) Update(ctx context.Context, userID string, book *domain.Book) (*domain.Book, error) {
	if !domain.ValidRating(book.Rating) {
		return nil, apperrors.Validationf("invalid rating %.1f: must be 0 to 5 in half steps", book.Rating)
	}

	book.OwnerID = userID

	current, err := s.store.GetBook(ctx, userID, book.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case book.IsRead && !current.IsRead:
		book.MarkRead(time.Now())
	case !book.IsRead && current.IsRead:
		book.ReadAt = nil
	case book.IsRead:
		// Still read, keep the original timestamp.
		book.ReadAt = current.ReadAt
	}

	return s.store.UpdateBook(ctx, book)
}

// Delete removes a book from whichever collection holds it. Deleting a
// book that is already gone is not an error.
func (s *LibraryService) Delete(ctx context.Context, userID, bookID string) error {
	return s.store.DeleteBook(ctx, userID, bookID)
}

// Get returns one of the user's books.
func (s *LibraryService) Get(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, userID, bookID)
}

// List returns the user's full library, both collections merged.
// Storage failures degrade to an empty shelf rather than an error page.
func (s *LibraryService) List(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list books, returning empty", "user_id", userID, "error", err)
		return []*domain.Book{}, nil
	}
	return books, nil
}

// ListByStatus returns books matching a status flag (read, favorite, wishlist).
func (s *LibraryService) ListByStatus(ctx context.Context, userID string, status store.BookStatus) ([]*domain.Book, error) {
	books, err := s.store.ListBooksByStatus(ctx, userID, status)
	if err != nil {
		s.logger.Error("failed to list books by status, returning empty",
			"user_id", userID,
			"status", status,
			"error", err,
		)
		return []*domain.Book{}, nil
	}
	return books, nil
}

// ListSorted returns the user's library ordered by the given field.
func (s *LibraryService) ListSorted(ctx context.Context, userID string, field store.SortField, descending bool) ([]*domain.Book, error) {
	books, err := s.store.ListBooksSorted(ctx, userID, field, descending)
	if err != nil {
		s.logger.Error("failed to list sorted books, returning empty",
			"user_id", userID,
			"field", field,
			"error", err,
		)
		return []*domain.Book{}, nil
	}
	return books, nil
}

// SearchLibrary runs the case-folded prefix search over the user's own
// books. Short queries and storage failures both come back empty.
func (s *LibraryService) SearchLibrary(ctx context.Context, userID, query string) ([]*domain.Book, error) {
	books, err := s.store.SearchBooks(ctx, userID, query)
	if err != nil {
		s.logger.Error("library search failed, returning empty", "user_id", userID, "error", err)
		return []*domain.Book{}, nil
	}
	return books, nil
}

// SearchCatalog fans the query out to the external book catalogs and marks
// results the user already owns.
func (s *LibraryService) SearchCatalog(ctx context.Context, userID, query string) ([]CatalogResult, error) {
	results, err := s.catalog.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	annotated := make([]CatalogResult, 0, len(results))
	for _, r := range results {
		cr := CatalogResult{Result: r}
		if r.ExternalID != "" {
			owned, err := s.store.GetBookByExternalID(ctx, userID, r.ExternalID)
			if err == nil {
				cr.InLibrary = true
				cr.InWishlist = owned.IsWishlist
				cr.BookID = owned.ID
			} else if !errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Warn("failed to check catalog result ownership",
					"user_id", userID,
					"external_id", r.ExternalID,
					"error", err,
				)
			}
		}
		annotated = append(annotated, cr)
	}
	return annotated, nil
}

// CatalogResult is a catalog hit annotated with the user's ownership state.
type CatalogResult struct {
	catalog.Result
	InLibrary  bool   `json:"in_library"`
	InWishlist bool   `json:"in_wishlist"`
	BookID     string `json:"book_id,omitempty"`
}

// FullTextSearch queries the bleve index over the user's library.
// Returns an empty result set when full-text search is disabled.
func (s *LibraryService) FullTextSearch(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.searchIndex == nil {
		return &search.SearchResult{}, nil
	}
	return s.searchIndex.Search(ctx, params)
}

// UploadCover validates an uploaded cover image, pushes it to the upload
// service, and points the book at the returned durable URL.
func (s *LibraryService) UploadCover(ctx context.Context, userID, bookID, filename string, data []byte) (*domain.Book, error) {
	if s.uploader == nil {
		return nil, apperrors.Validation("image uploads are not configured")
	}

	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	info, err := s.processor.Process(data)
	if err != nil {
		return nil, apperrors.Validation("unsupported or corrupt image").WithCause(err)
	}

	url, err := s.uploader.Upload(ctx, filename, data, "covers")
	if err != nil {
		return nil, apperrors.Upstream("cover upload failed", err)
	}

	book.CoverURL = url
	book.Touch()

	s.logger.Info("cover uploaded",
		"user_id", userID,
		"book_id", bookID,
		"format", info.Format,
		"width", info.Width,
		"height", info.Height,
	)

	return s.store.UpdateBook(ctx, book)
}
