package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	"github.com/readingroomapp/readingroom-server/internal/service"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Lists the user's library, optionally filtered by status, sorted, or prefix-searched",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Add book to library",
		Description: "Adds a catalog result to the library. Adding a book that is already present is a no-op reporting the existing record.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToWishlist",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/wishlist",
		Summary:     "Add book to wishlist",
		Description: "Wishlists a book. A record already in the library is flipped onto the wishlist rather than duplicated.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddToWishlist)

	huma.Register(s.api, huma.Operation{
		OperationID: "addManualBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/manual",
		Summary:     "Add hand-entered book",
		Description: "Stores a hand-entered book in the manual collection. Resubmitting the same ID overwrites.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddManualBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Applies partial field changes. Flipping is_read on stamps the read time; flipping it off clears it.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book from whichever collection holds it. Deleting a book that is already gone is not an error.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadBookCover",
		Method:       http.MethodPost,
		Path:         "/api/v1/books/{id}/cover",
		Summary:      "Upload book cover",
		Description:  "Uploads a replacement cover image and points the book at the durable URL",
		Tags:         []string{"Books"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleUploadBookCover)
}

// === DTOs ===

// BookFields holds the writable fields shared by the add flows.
type BookFields struct {
	ExternalID  string  `json:"external_id,omitempty" doc:"Catalog identifier, dedup key when present"`
	Title       string  `json:"title" doc:"Book title"`
	Author      string  `json:"author,omitempty" doc:"Author display name"`
	Description string  `json:"description,omitempty" doc:"Plain-text description"`
	CoverURL    string  `json:"cover_url,omitempty" doc:"Cover image URL"`
	Genre       string  `json:"genre,omitempty" doc:"Genre label"`
	PageCount   int     `json:"page_count,omitempty" doc:"Number of pages"`
	ISBN        string  `json:"isbn,omitempty" doc:"ISBN-13 or ISBN-10"`
	Language    string  `json:"language,omitempty" doc:"ISO 639-1 language code"`
	Rating      float64 `json:"rating,omitempty" doc:"Rating, 0 to 5 in half steps"`
}

// AddBookInput wraps the add-to-library request for Huma.
type AddBookInput struct {
	Body BookFields
}

// AddToWishlistInput wraps the wishlist request. BookID targets an existing
// library record when the work has no catalog identifier.
type AddToWishlistInput struct {
	Body struct {
		BookFields
		BookID string `json:"book_id,omitempty" doc:"Existing record ID to flip onto the wishlist"`
	}
}

// AddManualBookInput wraps the manual-entry request.
type AddManualBookInput struct {
	Body struct {
		BookFields
		ID string `json:"id,omitempty" doc:"Client-assigned ID; generated when blank"`
	}
}

// ListBooksInput contains list parameters.
type ListBooksInput struct {
	Query  string `query:"q" doc:"Title/author prefix search; takes precedence over other parameters"`
	Status string `query:"status" enum:"read,favorite,wishlist" required:"false" doc:"Filter by status flag"`
	Sort   string `query:"sort" enum:"added_at,title,rating" required:"false" doc:"Sort field"`
	Order  string `query:"order" enum:"asc,desc" default:"asc" doc:"Sort direction"`
}

// BookIDInput identifies one book by path.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookInput contains partial field changes.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body struct {
		Title       *string  `json:"title,omitempty" doc:"Book title"`
		Author      *string  `json:"author,omitempty" doc:"Author display name"`
		Description *string  `json:"description,omitempty" doc:"Plain-text description"`
		CoverURL    *string  `json:"cover_url,omitempty" doc:"Cover image URL"`
		Genre       *string  `json:"genre,omitempty" doc:"Genre label"`
		PageCount   *int     `json:"page_count,omitempty" doc:"Number of pages"`
		ISBN        *string  `json:"isbn,omitempty" doc:"ISBN"`
		Language    *string  `json:"language,omitempty" doc:"ISO 639-1 language code"`
		Rating      *float64 `json:"rating,omitempty" doc:"Rating, 0 to 5 in half steps"`
		IsRead      *bool    `json:"is_read,omitempty" doc:"Read flag"`
		IsFavorite  *bool    `json:"is_favorite,omitempty" doc:"Favorite flag"`
		IsWishlist  *bool    `json:"is_wishlist,omitempty" doc:"Wishlist flag"`
	}
}

// UploadCoverInput carries the raw image body.
type UploadCoverInput struct {
	ID          string `path:"id" doc:"Book ID"`
	ContentType string `header:"Content-Type" doc:"Image content type"`
	RawBody     []byte
}

// BookResponse contains a book record in API responses.
type BookResponse struct {
	ID          string     `json:"id" doc:"Record ID"`
	ExternalID  string     `json:"external_id,omitempty" doc:"Catalog identifier"`
	Title       string     `json:"title" doc:"Book title"`
	Author      string     `json:"author,omitempty" doc:"Author display name"`
	Description string     `json:"description,omitempty" doc:"Plain-text description"`
	CoverURL    string     `json:"cover_url,omitempty" doc:"Cover image URL"`
	BlurHash    string     `json:"cover_blur_hash,omitempty" doc:"Cover placeholder hash, set once the cover is cached"`
	Genre       string     `json:"genre,omitempty" doc:"Genre label"`
	PageCount   int        `json:"page_count,omitempty" doc:"Number of pages"`
	ISBN        string     `json:"isbn,omitempty" doc:"ISBN"`
	Language    string     `json:"language,omitempty" doc:"ISO 639-1 language code"`
	Rating      float64    `json:"rating" doc:"Rating, 0 to 5 in half steps"`
	IsRead      bool       `json:"is_read" doc:"Read flag"`
	IsFavorite  bool       `json:"is_favorite" doc:"Favorite flag"`
	IsWishlist  bool       `json:"is_wishlist" doc:"Wishlist flag"`
	ReadAt      *time.Time `json:"read_at,omitempty" doc:"When the book was marked read"`
	CreatedAt   time.Time  `json:"created_at" doc:"When the record was added"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last modification time"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// AddBookResponse pairs the stored record with the reconciliation outcome.
type AddBookResponse struct {
	Book    BookResponse `json:"book" doc:"Stored record"`
	Outcome string       `json:"outcome" doc:"What the add actually did: added, already_in_library, already_in_wishlist, or wishlisted"`
}

// AddBookOutput wraps the add result for Huma.
type AddBookOutput struct {
	Body AddBookResponse
}

// ListBooksOutput wraps the book list for Huma.
type ListBooksOutput struct {
	Body struct {
		Books []BookResponse `json:"books" doc:"Matching books"`
	}
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var books []*domain.Book
	switch {
	case input.Query != "":
		books, err = s.services.Library.SearchLibrary(ctx, userID, input.Query)
	case input.Status != "":
		books, err = s.services.Library.ListByStatus(ctx, userID, store.BookStatus(input.Status))
	case input.Sort != "":
		books, err = s.services.Library.ListSorted(ctx, userID, store.SortField(input.Sort), input.Order == "desc")
	default:
		books, err = s.services.Library.List(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	out := &ListBooksOutput{}
	out.Body.Books = mapBooks(books)
	return out, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*AddBookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Library.AddToLibrary(ctx, userID, bookFromFields(input.Body))
	if err != nil {
		return nil, err
	}

	return &AddBookOutput{Body: mapAddResult(result)}, nil
}

func (s *Server) handleAddToWishlist(ctx context.Context, input *AddToWishlistInput) (*AddBookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book := bookFromFields(input.Body.BookFields)
	book.ID = input.Body.BookID

	result, err := s.services.Library.AddToWishlist(ctx, userID, book)
	if err != nil {
		return nil, err
	}

	return &AddBookOutput{Body: mapAddResult(result)}, nil
}

func (s *Server) handleAddManualBook(ctx context.Context, input *AddManualBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book := bookFromFields(input.Body.BookFields)
	book.ID = input.Body.ID

	created, err := s.services.Library.AddManual(ctx, userID, book)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(created)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Merge the partial update over the current record, then let the
	// service apply the read-state transition rules.
	book, err := s.services.Library.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	body := input.Body
	if body.Title != nil {
		book.Title = *body.Title
	}
	if body.Author != nil {
		book.Author = *body.Author
	}
	if body.Description != nil {
		book.Description = *body.Description
	}
	if body.CoverURL != nil {
		book.CoverURL = *body.CoverURL
	}
	if body.Genre != nil {
		book.Genre = *body.Genre
	}
	if body.PageCount != nil {
		book.PageCount = *body.PageCount
	}
	if body.ISBN != nil {
		book.ISBN = *body.ISBN
	}
	if body.Language != nil {
		book.Language = *body.Language
	}
	if body.Rating != nil {
		book.Rating = *body.Rating
	}
	if body.IsRead != nil {
		book.IsRead = *body.IsRead
	}
	if body.IsFavorite != nil {
		book.IsFavorite = *body.IsFavorite
	}
	if body.IsWishlist != nil {
		book.IsWishlist = *body.IsWishlist
	}

	updated, err := s.services.Library.Update(ctx, userID, book)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(updated)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleUploadBookCover(ctx context.Context, input *UploadCoverInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	filename := input.ID + extensionForContentType(input.ContentType)
	book, err := s.services.Library.UploadCover(ctx, userID, input.ID, filename, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

// === Helpers ===

func bookFromFields(f BookFields) *domain.Book {
	return &domain.Book{
		ExternalID:  f.ExternalID,
		Title:       f.Title,
		Author:      f.Author,
		Description: f.Description,
		CoverURL:    f.CoverURL,
		Genre:       f.Genre,
		PageCount:   f.PageCount,
		ISBN:        f.ISBN,
		Language:    f.Language,
		Rating:      f.Rating,
	}
}

func mapBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		ExternalID:  b.ExternalID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		CoverURL:    b.CoverURL,
		BlurHash:    b.CoverBlurHash,
		Genre:       b.Genre,
		PageCount:   b.PageCount,
		ISBN:        b.ISBN,
		Language:    b.Language,
		Rating:      b.Rating,
		IsRead:      b.IsRead,
		IsFavorite:  b.IsFavorite,
		IsWishlist:  b.IsWishlist,
		ReadAt:      b.ReadAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func mapBooks(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = mapBookResponse(b)
	}
	return out
}

func mapAddResult(r *service.AddResult) AddBookResponse {
	return AddBookResponse{
		Book:    mapBookResponse(r.Book),
		Outcome: string(r.Outcome),
	}
}

// extensionForContentType picks a filename extension for an uploaded image.
func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
