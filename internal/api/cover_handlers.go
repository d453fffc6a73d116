package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// registerCoverRoutes wires the book cover endpoint. The huma operation
// resolves a book to its image location; the raw chi route streams the
// cached bytes, which does not fit huma's request/response model.
func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBookCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/cover",
		Summary:     "Get book cover",
		Description: "Redirects to the locally cached cover when present, to the catalog URL otherwise",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookCover)

	if s.covers != nil {
		s.router.Get("/covers/{id}", s.handleServeCover)
	}
}

// CoverRedirectOutput sends the client to wherever the cover bytes live.
type CoverRedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

func (o *CoverRedirectOutput) StatusCode() int {
	return o.Status
}

func (s *Server) handleGetBookCover(ctx context.Context, input *BookIDInput) (*CoverRedirectOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	if s.covers != nil && s.covers.Exists(book.ID) {
		return &CoverRedirectOutput{
			Status:   http.StatusTemporaryRedirect,
			Location: "/covers/" + book.ID,
		}, nil
	}

	// No local copy yet. Fall back to the catalog's URL.
	if book.CoverURL != "" {
		return &CoverRedirectOutput{
			Status:   http.StatusTemporaryRedirect,
			Location: book.CoverURL,
		}, nil
	}

	return nil, huma.Error404NotFound("book has no cover")
}

// handleServeCover streams a cached cover image from local storage.
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "cover id required", http.StatusBadRequest)
		return
	}

	data, err := s.covers.Get(id)
	if err != nil {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
