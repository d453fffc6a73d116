package openlibrary

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/genre"
	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

const (
	searchBaseURL = "https://openlibrary.org/search.json"
	coverBaseURL  = "https://covers.openlibrary.org/b/id"
	maxResults    = 20
)

// Sentinel errors for Open Library API operations.
var (
	ErrRateLimited = errors.New("openlibrary: rate limited by server")
	ErrBadRequest  = errors.New("openlibrary: bad request")
	ErrServer      = errors.New("openlibrary: server error")
)

// Search queries search.json and normalizes results.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Result, error) {
	return c.searchWithBase(ctx, searchBaseURL, query)
}

// searchWithBase performs the search against a custom base URL (for testing).
func (c *Client) searchWithBase(ctx context.Context, baseURL, query string) ([]catalog.Result, error) {
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, fmt.Errorf("openlibrary search %q: rate limit wait: %w", query, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", maxResults))
	// Asking for explicit fields keeps the response small; search.json
	// otherwise returns dozens of facets per doc.
	params.Set("fields", "key,title,author_name,first_sentence,cover_i,isbn,language,subject,number_of_pages_median")

	searchURL := baseURL + "?" + params.Encode()

	c.logger.Debug("searching Open Library", "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openlibrary search %q: create request: %w", query, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("openlibrary search %q: %w", query, err)
	}

	var searchResp searchResponse
	if err := json.UnmarshalRead(resp.Body, &searchResp); err != nil {
		return nil, fmt.Errorf("openlibrary search %q: parse response: %w", query, err)
	}

	c.logger.Debug("Open Library search results",
		"query", query,
		"count", len(searchResp.Docs),
	)

	results := make([]catalog.Result, 0, len(searchResp.Docs))
	for i := range searchResp.Docs {
		d := &searchResp.Docs[i]
		if d.Key == "" || d.Title == "" {
			continue
		}
		results = append(results, c.toResult(d))
	}

	return results, nil
}

// toResult normalizes one work doc into the common result shape.
func (c *Client) toResult(d *doc) catalog.Result {
	g := ""
	if len(d.Subject) > 0 {
		g = genre.Canonical(d.Subject[0])
	}

	description := ""
	if len(d.FirstSentence) > 0 {
		description = d.FirstSentence[0]
	}

	isbn := ""
	if len(d.ISBN) > 0 {
		isbn = d.ISBN[0]
	}

	language := ""
	if len(d.Language) > 0 {
		language = normalize.LanguageCode(d.Language[0])
	}

	return catalog.Result{
		ExternalID:  workID(d.Key),
		Title:       d.Title,
		Author:      strings.Join(d.AuthorName, ", "),
		Description: description,
		CoverURL:    coverURL(d.CoverID),
		Genre:       g,
		PageCount:   d.NumberOfPagesMed,
		ISBN:        isbn,
		Language:    language,
		Source:      c.Name(),
	}
}

// workID strips the "/works/" path prefix from a work key.
func workID(key string) string {
	return strings.TrimPrefix(key, "/works/")
}

// coverURL builds a medium-size cover image URL from a cover ID.
func coverURL(coverID int64) string {
	if coverID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/%d-M.jpg", coverBaseURL, coverID)
}

// checkStatus maps HTTP status codes to typed errors.
func checkStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: status %d", ErrBadRequest, status)
	default:
		return fmt.Errorf("%w: status %d", ErrServer, status)
	}
}
