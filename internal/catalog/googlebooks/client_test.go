package googlebooks

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(slog.New(slog.DiscardHandler), WithRateLimit(1000, 1000))
	t.Cleanup(client.Close)
	return client, server
}

const volumesJSON = `{
	"totalItems": 2,
	"items": [
		{
			"id": "gb-dune",
			"volumeInfo": {
				"title": "Dune",
				"authors": ["Frank Herbert"],
				"description": "<p>A <b>desert</b> planet.</p>",
				"pageCount": 412,
				"categories": ["Fiction", "Science Fiction"],
				"language": "en",
				"imageLinks": {
					"smallThumbnail": "http://books.google.com/small.jpg",
					"thumbnail": "http://books.google.com/thumb.jpg"
				},
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0441013597"},
					{"type": "ISBN_13", "identifier": "9780441013593"}
				]
			}
		},
		{
			"id": "",
			"volumeInfo": {"title": "No ID, dropped"}
		}
	]
}`

func TestSearch_ParsesVolumes(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("maxResults"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesJSON))
	})

	results, err := client.searchWithBase(context.Background(), server.URL, "dune")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "gb-dune", r.ExternalID)
	assert.Equal(t, "Dune", r.Title)
	assert.Equal(t, "Frank Herbert", r.Author)
	assert.Equal(t, 412, r.PageCount)
	assert.Equal(t, "Fiction", r.Genre)
	assert.Equal(t, "en", r.Language)
	assert.Equal(t, "9780441013593", r.ISBN)
	assert.Equal(t, "googlebooks", r.Source)

	// Thumbnails upgraded to HTTPS
	assert.Equal(t, "https://books.google.com/thumb.jpg", r.CoverURL)

	// HTML description converted to markdown
	assert.NotContains(t, r.Description, "<p>")
	assert.Contains(t, r.Description, "desert")
}

func TestSearch_JoinsMultipleAuthors(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"x","volumeInfo":{"title":"Good Omens","authors":["Terry Pratchett","Neil Gaiman"]}}]}`))
	})

	results, err := client.searchWithBase(context.Background(), server.URL, "good omens")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Terry Pratchett, Neil Gaiman", results[0].Author)
}

func TestSearch_ServerError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.searchWithBase(context.Background(), server.URL, "dune")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
}

func TestSearch_RateLimitedByServer(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.searchWithBase(context.Background(), server.URL, "dune")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestUpgradeCoverURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"http upgraded", "http://example.com/img.jpg", "https://example.com/img.jpg"},
		{"https untouched", "https://example.com/img.jpg", "https://example.com/img.jpg"},
		{"empty untouched", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upgradeCoverURL(tt.in))
		})
	}
}

func TestBestISBN(t *testing.T) {
	ids := []industryIdentifier{
		{Type: "OTHER", Identifier: "abc"},
		{Type: "ISBN_10", Identifier: "0441013597"},
		{Type: "ISBN_13", Identifier: "9780441013593"},
	}
	assert.Equal(t, "9780441013593", bestISBN(ids))

	only10 := []industryIdentifier{{Type: "ISBN_10", Identifier: "0441013597"}}
	assert.Equal(t, "0441013597", bestISBN(only10))

	assert.Equal(t, "", bestISBN(nil))
}

func TestContainsHTML(t *testing.T) {
	assert.True(t, containsHTML("<p>hello</p>"))
	assert.True(t, containsHTML("line<br/>break"))
	assert.False(t, containsHTML("3 < 5 and plain text"))
	assert.False(t, containsHTML(""))
}
