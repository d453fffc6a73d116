package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/search"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search external catalogs",
		Description: "Fans the query out to the external book catalogs and marks results the user already owns",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search library",
		Description: "Full-text search over the user's own library",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchCatalogInput contains parameters for external catalog search.
type SearchCatalogInput struct {
	Query string `query:"q" minLength:"1" maxLength:"200" doc:"Search query"`
}

// CatalogResultResponse is a catalog hit annotated with ownership state.
type CatalogResultResponse struct {
	ExternalID  string `json:"external_id,omitempty" doc:"Provider identifier for the work"`
	Title       string `json:"title" doc:"Book title"`
	Author      string `json:"author,omitempty" doc:"Joined author names"`
	Description string `json:"description,omitempty" doc:"Plain-text description"`
	CoverURL    string `json:"cover_url,omitempty" doc:"Cover image URL"`
	Genre       string `json:"genre,omitempty" doc:"Genre label"`
	PageCount   int    `json:"page_count,omitempty" doc:"Number of pages"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN"`
	Language    string `json:"language,omitempty" doc:"ISO 639-1 language code"`
	Source      string `json:"source" doc:"Provider that produced this result"`
	InLibrary   bool   `json:"in_library" doc:"Whether the user already owns this work"`
	InWishlist  bool   `json:"in_wishlist" doc:"Whether the owned record is wishlisted"`
	BookID      string `json:"book_id,omitempty" doc:"Record ID of the owned copy"`
}

// SearchCatalogOutput wraps catalog results for Huma.
type SearchCatalogOutput struct {
	Body struct {
		Results []CatalogResultResponse `json:"results" doc:"Merged, deduplicated catalog results"`
	}
}

// SearchInput contains parameters for full-text library search.
type SearchInput struct {
	Query     string  `query:"q" minLength:"1" maxLength:"200" doc:"Search query"`
	Genre     string  `query:"genre" required:"false" doc:"Filter by exact genre"`
	Read      bool    `query:"read" doc:"Only read books"`
	Favorite  bool    `query:"favorite" doc:"Only favorites"`
	Wishlist  bool    `query:"wishlist" doc:"Only wishlisted books"`
	MinRating float64 `query:"min_rating" doc:"Minimum rating filter"`
	Limit     int     `query:"limit" doc:"Max results (default 20, max 100)"`
	Offset    int     `query:"offset" doc:"Pagination offset"`
	Sort      string  `query:"sort" enum:"relevance,title,author,recent,rating" default:"relevance" doc:"Sort field"`
	Order     string  `query:"order" enum:"asc,desc" default:"desc" doc:"Sort direction"`
	Facets    bool    `query:"facets" doc:"Include genre facet counts"`
}

// SearchHitResponse contains a single full-text hit.
type SearchHitResponse struct {
	ID         string            `json:"id" doc:"Record ID"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Title      string            `json:"title" doc:"Book title"`
	Author     string            `json:"author,omitempty" doc:"Author display name"`
	Genre      string            `json:"genre,omitempty" doc:"Genre label"`
	Rating     float64           `json:"rating,omitempty" doc:"Rating"`
	IsRead     bool              `json:"is_read" doc:"Read flag"`
	IsFavorite bool              `json:"is_favorite" doc:"Favorite flag"`
	IsWishlist bool              `json:"is_wishlist" doc:"Wishlist flag"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// FacetCountResponse represents a facet value and its count.
type FacetCountResponse struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// SearchResponse contains full-text search results.
type SearchResponse struct {
	Query  string               `json:"query" doc:"Original search query"`
	Total  uint64               `json:"total" doc:"Total matches"`
	TookMs int64                `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse  `json:"hits" doc:"Search results"`
	Genres []FacetCountResponse `json:"genres,omitempty" doc:"Genre facet counts"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearchCatalog(ctx context.Context, input *SearchCatalogInput) (*SearchCatalogOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	results, err := s.services.Library.SearchCatalog(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}

	out := &SearchCatalogOutput{}
	out.Body.Results = make([]CatalogResultResponse, len(results))
	for i, r := range results {
		out.Body.Results[i] = mapCatalogResult(r)
	}
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams(userID)
	params.Query = input.Query
	params.Genre = input.Genre
	params.OnlyRead = input.Read
	params.OnlyFavorite = input.Favorite
	params.OnlyWishlist = input.Wishlist
	params.MinRating = input.MinRating
	params.SortBy = input.Sort
	params.SortOrder = input.Order
	params.IncludeFacets = input.Facets
	if input.Limit > 0 && input.Limit <= 100 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}

	result, err := s.services.Library.FullTextSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResponse, len(result.Hits)),
	}
	for i, h := range result.Hits {
		resp.Hits[i] = SearchHitResponse{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Name,
			Author:     h.Author,
			Genre:      h.Genre,
			Rating:     h.Rating,
			IsRead:     h.IsRead,
			IsFavorite: h.IsFavorite,
			IsWishlist: h.IsWishlist,
			Highlights: h.Highlights,
		}
	}
	for _, f := range result.Genres {
		resp.Genres = append(resp.Genres, FacetCountResponse{Value: f.Value, Count: f.Count})
	}

	return &SearchOutput{Body: resp}, nil
}

// === Helpers ===

func mapCatalogResult(r service.CatalogResult) CatalogResultResponse {
	return CatalogResultResponse{
		ExternalID:  r.ExternalID,
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Genre:       r.Genre,
		PageCount:   r.PageCount,
		ISBN:        r.ISBN,
		Language:    r.Language,
		Source:      r.Source,
		InLibrary:   r.InLibrary,
		InWishlist:  r.InWishlist,
		BookID:      r.BookID,
	}
}
