package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/genre"
	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

const (
	searchBaseURL = "https://www.googleapis.com/books/v1/volumes"
	maxResults    = 20
)

// Search queries the volumes API and normalizes results.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Result, error) {
	return c.searchWithBase(ctx, searchBaseURL, query)
}

// searchWithBase performs the search against a custom base URL (for testing).
func (c *Client) searchWithBase(ctx context.Context, baseURL, query string) ([]catalog.Result, error) {
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("rate limit wait: %w", err))
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	searchURL := baseURL + "?" + params.Encode()

	c.logger.Debug("searching Google Books", "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, wrapError("search", query, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError("search", query, fmt.Errorf("search request: %w", err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, wrapError("search", query, err)
	}

	var volumesResp volumesResponse
	if err := json.UnmarshalRead(resp.Body, &volumesResp); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("parse response: %w", err))
	}

	c.logger.Debug("Google Books search results",
		"query", query,
		"count", len(volumesResp.Items),
	)

	results := make([]catalog.Result, 0, len(volumesResp.Items))
	for i := range volumesResp.Items {
		v := &volumesResp.Items[i]
		if v.ID == "" || v.VolumeInfo.Title == "" {
			continue
		}
		results = append(results, c.toResult(v))
	}

	return results, nil
}

// toResult normalizes one volume into the common result shape.
func (c *Client) toResult(v *volume) catalog.Result {
	info := &v.VolumeInfo

	g := ""
	if len(info.Categories) > 0 {
		g = genre.Canonical(info.Categories[0])
	}

	return catalog.Result{
		ExternalID:  v.ID,
		Title:       info.Title,
		Author:      strings.Join(info.Authors, ", "),
		Description: htmlToMarkdown(info.Description),
		CoverURL:    upgradeCoverURL(bestCover(info.ImageLinks)),
		Genre:       g,
		PageCount:   info.PageCount,
		ISBN:        bestISBN(info.IndustryIdentifiers),
		Language:    normalize.LanguageCode(info.Language),
		Source:      c.Name(),
	}
}

// bestCover prefers the larger thumbnail.
func bestCover(links imageLinks) string {
	if links.Thumbnail != "" {
		return links.Thumbnail
	}
	return links.SmallThumbnail
}

// upgradeCoverURL rewrites plain-HTTP image links to HTTPS.
// Google Books volume responses still ship http:// thumbnails.
func upgradeCoverURL(coverURL string) string {
	if strings.HasPrefix(coverURL, "http://") {
		return "https://" + strings.TrimPrefix(coverURL, "http://")
	}
	return coverURL
}

// bestISBN prefers ISBN_13 over ISBN_10.
func bestISBN(ids []industryIdentifier) string {
	isbn10 := ""
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
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
