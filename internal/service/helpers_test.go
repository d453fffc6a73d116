package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	testStore, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { testStore.Close() })

	return testStore
}

func createTestUser(t *testing.T, s *store.Store, email, nickname string) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        email,
		PasswordHash: "unused",
		Nickname:     nickname,
		Discoverable: true,
	}
	created, err := s.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return created
}

func createTestBook(t *testing.T, s *store.Store, ownerID, title, author string, mutate func(*domain.Book)) *domain.Book {
	t.Helper()
	book := &domain.Book{
		OwnerID: ownerID,
		Title:   title,
		Author:  author,
	}
	if mutate != nil {
		mutate(book)
	}
	created, err := s.AddBook(context.Background(), book)
	require.NoError(t, err)
	return created
}
