package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/catalog"
	"github.com/readingroomapp/readingroom-server/internal/prefs"
	"github.com/readingroomapp/readingroom-server/internal/search"
	"github.com/readingroomapp/readingroom-server/internal/service"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// stubProvider serves canned catalog results.
type stubProvider struct {
	name    string
	results []catalog.Result
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(_ context.Context, _ string) ([]catalog.Result, error) {
	return p.results, nil
}

// setupSearchTestServer builds a server with a real bleve index wired into
// the store and the given catalog providers.
func setupSearchTestServer(t *testing.T, providers ...catalog.Provider) *testServer {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	searchIndex, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = searchIndex.Close() })
	st.SetSearchIndexer(searchIndex)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	prefStore, err := prefs.NewStore(filepath.Join(tmpDir, "prefs"), logger)
	require.NoError(t, err)

	aggregator := catalog.NewAggregator(providers, nil, logger)

	services := &Services{
		Auth:     service.NewAuthService(st, tokenService, logger),
		Library:  service.NewLibraryService(st, aggregator, searchIndex, nil, nil, nil, logger),
		Social:   service.NewSocialService(st, store.NewNoopEmitter(), logger),
		Stats:    service.NewStatsService(st, prefStore, logger),
		Profile:  service.NewProfileService(st, nil, nil, logger),
		Settings: service.NewSettingsService(prefStore, store.NewNoopEmitter(), logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("ReadingRoom API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
	}

	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerSearchRoutes()

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, api),
		tokenService: tokenService,
	}
}

func TestSearchCatalog_MergesAndDeduplicates(t *testing.T) {
	ts := setupSearchTestServer(t,
		&stubProvider{name: "google-books", results: []catalog.Result{
			{ExternalID: "gb-42", Title: "Dune", Author: "Frank Herbert", Source: "google-books"},
		}},
		&stubProvider{name: "open-library", results: []catalog.Result{
			{ExternalID: "gb-42", Title: "Dune", Author: "Frank Herbert", Source: "open-library"},
			{ExternalID: "ol-7", Title: "Hyperion", Author: "Dan Simmons", Source: "open-library"},
		}},
	)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Get("/api/v1/catalog/search?q=dune", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Results []CatalogResultResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))

	// The shared external ID collapses to one entry.
	assert.Len(t, out.Results, 2)
}

func TestSearchCatalog_AnnotatesOwnership(t *testing.T) {
	ts := setupSearchTestServer(t,
		&stubProvider{name: "google-books", results: []catalog.Result{
			{ExternalID: "gb-42", Title: "Dune", Author: "Frank Herbert", Source: "google-books"},
			{ExternalID: "gb-7", Title: "Hyperion", Author: "Dan Simmons", Source: "google-books"},
		}},
	)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	added := ts.addBook(t, token, map[string]any{
		"external_id": "gb-42",
		"title":       "Dune",
	})

	resp := ts.api.Get("/api/v1/catalog/search?q=dune", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Results []CatalogResultResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Results, 2)

	byID := make(map[string]CatalogResultResponse, len(out.Results))
	for _, r := range out.Results {
		byID[r.ExternalID] = r
	}

	assert.True(t, byID["gb-42"].InLibrary)
	assert.Equal(t, added.Book.ID, byID["gb-42"].BookID)
	assert.False(t, byID["gb-7"].InLibrary)
	assert.Empty(t, byID["gb-7"].BookID)
}

func TestSearchCatalog_NoProviders(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Get("/api/v1/catalog/search?q=dune", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Results []CatalogResultResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Empty(t, out.Results)
}

func TestFullTextSearch(t *testing.T) {
	ts := setupSearchTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	ts.addBook(t, token, map[string]any{
		"title":       "Dune",
		"author":      "Frank Herbert",
		"genre":       "Science Fiction",
		"external_id": "gb-1",
	})
	ts.addBook(t, token, map[string]any{
		"title":       "Hyperion",
		"author":      "Dan Simmons",
		"genre":       "Science Fiction",
		"external_id": "gb-2",
	})

	// Indexing runs behind the store write.
	var result SearchResponse
	require.Eventually(t, func() bool {
		resp := ts.api.Get("/api/v1/search?q=herbert", "Authorization: Bearer "+token)
		if resp.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
			return false
		}
		return result.Total == 1
	}, 5*time.Second, 50*time.Millisecond)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Dune", result.Hits[0].Title)
}

func TestFullTextSearch_GenreFacets(t *testing.T) {
	ts := setupSearchTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	ts.addBook(t, token, map[string]any{
		"title":       "Dune",
		"genre":       "Science Fiction",
		"external_id": "gb-1",
	})
	ts.addBook(t, token, map[string]any{
		"title":       "Dracula",
		"genre":       "Horror",
		"external_id": "gb-2",
	})

	var result SearchResponse
	require.Eventually(t, func() bool {
		// No text query: browse mode matches the whole library.
		resp := ts.api.Get("/api/v1/search?facets=true", "Authorization: Bearer "+token)
		if resp.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
			return false
		}
		return result.Total == 2
	}, 5*time.Second, 50*time.Millisecond)

	assert.Len(t, result.Genres, 2)
}

func TestFullTextSearch_Disabled(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Get("/api/v1/search?q=dune", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result SearchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Hits)
}
