package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

//go:embed schema.sql
var schemaSQL string

// Cache is a SQLite-backed TTL cache for catalog query results.
// Queries are keyed case-folded, so "Dune" and "dune" share an entry.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenCache creates a new query cache at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func OpenCache(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Cache{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns cached results for a query, or found=false on miss or expiry.
func (c *Cache) Get(ctx context.Context, query string) ([]Result, bool) {
	key := normalize.SearchKey(query)

	var resultsJSON, cachedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT results, cached_at FROM query_cache WHERE query = ?`, key,
	).Scan(&resultsJSON, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("catalog cache read failed", "query", key, "error", err)
		}
		return nil, false
	}

	stored, err := parseTime(cachedAt)
	if err != nil || time.Since(stored) > c.ttl {
		return nil, false
	}

	var results []Result
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		if c.logger != nil {
			c.logger.Warn("catalog cache entry corrupt", "query", key, "error", err)
		}
		return nil, false
	}

	return results, true
}

// Put stores results for a query, replacing any prior entry.
func (c *Cache) Put(ctx context.Context, query string, results []Result) error {
	key := normalize.SearchKey(query)

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO query_cache (query, results, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET results = excluded.results, cached_at = excluded.cached_at`,
		key, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Prune deletes entries older than the TTL. Returns rows removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	cutoff := formatTime(time.Now().Add(-c.ttl))

	res, err := c.db.ExecContext(ctx,
		`DELETE FROM query_cache WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
