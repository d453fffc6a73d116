package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
// OwnerID is mandatory: the index holds every user's library, and a query
// without owner scoping would leak other users' records.
type SearchParams struct {
	OwnerID string // Scope filter, required
	Query   string // User's search query

	// Filters
	Genre        string // Filter by exact genre
	OnlyRead     bool
	OnlyFavorite bool
	OnlyWishlist bool
	MinRating    float64

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "author", "recent", "rating"
	SortOrder string // "asc", "desc"

	// Options
	IncludeFacets bool // Include genre facet counts in results
	Highlight     bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams(ownerID string) SearchParams {
	return SearchParams{
		OwnerID:       ownerID,
		Limit:         20,
		Offset:        0,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Genres []FacetCount `json:"genres,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Author     string            `json:"author,omitempty"`
	Genre      string            `json:"genre,omitempty"`
	Rating     float64           `json:"rating,omitempty"`
	IsRead     bool              `json:"is_read"`
	IsFavorite bool              `json:"is_favorite"`
	IsWishlist bool              `json:"is_wishlist"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query scoped to one user's library.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.OwnerID == "" {
		return nil, fmt.Errorf("search requires an owner id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("genre", bleve.NewFacetRequest("genre", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("author")
	}

	// Request stored fields
	searchRequest.Fields = []string{
		"id", "name", "author", "genre", "rating",
		"is_read", "is_favorite", "is_wishlist",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		// Extract stored fields
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}
		if g, ok := hit.Fields["genre"].(string); ok {
			searchHit.Genre = g
		}
		if r, ok := hit.Fields["rating"].(float64); ok {
			searchHit.Rating = r
		}
		if b, ok := hit.Fields["is_read"].(bool); ok {
			searchHit.IsRead = b
		}
		if b, ok := hit.Fields["is_favorite"].(bool); ok {
			searchHit.IsFavorite = b
		}
		if b, ok := hit.Fields["is_wishlist"].(bool); ok {
			searchHit.IsWishlist = b
		}

		// Extract highlights
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		if genreFacet, ok := searchResult.Facets["genre"]; ok {
			for _, term := range genreFacet.Terms.Terms() {
				result.Genres = append(result.Genres, FacetCount{
					Value: term.Term,
					Count: term.Count,
				})
			}
		}
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// The owner term is always part of the conjunction.
func buildSearchQuery(params SearchParams) query.Query {
	ownerQuery := bleve.NewTermQuery(params.OwnerID)
	ownerQuery.SetField("owner_id")

	queries := []query.Query{ownerQuery}

	// Main text query across title, author, and description, ranked in
	// that order, with typo tolerance and prefix autocomplete on the title.
	if params.Query != "" {
		textQueries := []query.Query{}

		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)
		textQueries = append(textQueries, authorMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)
		textQueries = append(textQueries, descMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Genre filter (exact match)
	if params.Genre != "" {
		genreQuery := bleve.NewTermQuery(params.Genre)
		genreQuery.SetField("genre")
		queries = append(queries, genreQuery)
	}

	// Flag filters
	if params.OnlyRead {
		queries = append(queries, boolFieldQuery("is_read"))
	}
	if params.OnlyFavorite {
		queries = append(queries, boolFieldQuery("is_favorite"))
	}
	if params.OnlyWishlist {
		queries = append(queries, boolFieldQuery("is_wishlist"))
	}

	// Rating floor
	if params.MinRating > 0 {
		min := params.MinRating
		max := 5.0
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("rating")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

func boolFieldQuery(field string) query.Query {
	q := bleve.NewBoolFieldQuery(true)
	q.SetField(field)
	return q
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title", "name":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-name"})
		} else {
			req.SortBy([]string{"name"})
		}
	case "author":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-author", "-name"})
		} else {
			req.SortBy([]string{"author", "name"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "rating":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"rating"})
		} else {
			req.SortBy([]string{"-rating"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
