// Package store provides Badger-backed persistence for the ReadingRoom server.
//
// Book records live in two physically separate collections with identical
// shape: the primary collection (key prefix "book:") written by the catalog
// search add flow, and the manual collection (key prefix "manual:") written
// by the hand-entered flow. Collection membership is implicit in the key
// prefix, so lookups, updates, and deletes probe both.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/readingroomapp/readingroom-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the full-text search index.
// Store uses this to keep search in sync without depending on search implementation.
// Index updates are performed asynchronously to not block store operations.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter for broadcasting changes.
	eventEmitter EventEmitter

	// Search indexer for keeping full-text search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Books       *Entity[domain.Book] // primary collection
	ManualBooks *Entity[domain.Book] // manual collection
	Users       *Entity[domain.User]
	Sessions    *Entity[domain.Session]
}

// New creates a new Store instance with the given database path and event emitter.
// The emitter is required and used to broadcast store changes via SSE.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	store.initBooks()
	store.initUsers()
	store.initSessions()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping full-text search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// bookIndexes returns the index set shared by both book collections.
// The "ext" index enforces (owner, external catalog ID) uniqueness; the
// remaining indexes embed the record ID in the key so entries never collide,
// making them pure prefix-scan indexes.
func bookIndexes(e *Entity[domain.Book], withExt bool) *Entity[domain.Book] {
	if withExt {
		e = e.WithIndex("ext", func(b *domain.Book) []string {
			if b.ExternalID == "" {
				return nil
			}
			return []string{b.OwnerID + ":" + b.ExternalID}
		})
	}
	return e.
		WithIndex("owner", func(b *domain.Book) []string {
			return []string{b.OwnerID + ":" + b.ID}
		}).
		WithIndex("title", func(b *domain.Book) []string {
			return []string{b.OwnerID + ":" + b.TitleKey + ":" + b.ID}
		}).
		WithIndex("author", func(b *domain.Book) []string {
			return []string{b.OwnerID + ":" + b.AuthorKey + ":" + b.ID}
		})
}

// initBooks initializes the two book collections on the store.
// Only the primary collection carries the external-ID uniqueness index;
// manual records reuse catalog identifiers freely.
func (s *Store) initBooks() {
	s.Books = bookIndexes(NewEntity[domain.Book](s, "book:"), true)
	s.ManualBooks = bookIndexes(NewEntity[domain.Book](s, "manual:"), false)
}

// initUsers initializes the Users entity on the store.
// Uses case-insensitive email indexing via normalizeEmail transformation.
// The nickname index is a prefix-scan index over the folded nickname.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail, // Transform lookups to be case-insensitive
		).
		WithIndex("nickname", func(u *domain.User) []string {
			return []string{u.NicknameKey + ":" + u.ID}
		})
}

// initSessions initializes the Sessions entity on the store.
// Indexed by refresh token hash (for token rotation lookups) and by user
// (for listing and bulk-revoking a user's sessions).
func (s *Store) initSessions() {
	s.Sessions = NewEntity[domain.Session](s, "session:").
		WithIndex("token", func(sess *domain.Session) []string {
			return []string{sess.RefreshTokenHash}
		}).
		WithIndex("user", func(sess *domain.Session) []string {
			return []string{sess.UserID + ":" + sess.ID}
		})
}

// normalizeEmail lowercases and trims an email address for index storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
