package search

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:      "book-123",
		OwnerID: "user-1",
		Name:    "The Hobbit",
		Author:  "J.R.R. Tolkien",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexDocuments_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", OwnerID: "user-1", Name: "Book One"},
		{ID: "book-2", OwnerID: "user-1", Name: "Book Two"},
		{ID: "book-3", OwnerID: "user-1", Name: "Book Three"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:      "book-123",
		OwnerID: "user-1",
		Name:    "Test Book",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	err = index.DeleteDocument("book-123")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", OwnerID: "user-1", Name: "The Hobbit", Author: "J.R.R. Tolkien"},
		{ID: "book-2", OwnerID: "user-1", Name: "The Lord of the Rings", Author: "J.R.R. Tolkien"},
		{ID: "book-3", OwnerID: "user-1", Name: "Harry Potter", Author: "J.K. Rowling"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		OwnerID: "user-1",
		Query:   "Tolkien",
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestSearchIndex_Search_OwnerScoped(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", OwnerID: "user-1", Name: "The Hobbit"},
		{ID: "book-2", OwnerID: "user-2", Name: "The Hobbit"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	// Another user's identical book never surfaces
	result, err := index.Search(ctx, SearchParams{
		OwnerID: "user-1",
		Query:   "Hobbit",
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "book-1", result.Hits[0].ID)

	// Owner scoping is mandatory
	_, err = index.Search(ctx, SearchParams{Query: "Hobbit", Limit: 10})
	require.Error(t, err)
}

func TestSearchIndex_Search_Prefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:      "book-1",
		OwnerID: "user-1",
		Name:    "The Hobbit",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		OwnerID: "user-1",
		Query:   "Hobb", // Prefix of Hobbit
		Limit:   10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestSearchIndex_Search_GenreFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", OwnerID: "user-1", Name: "Epic Fantasy Book", Genre: "Fantasy"},
		{ID: "book-2", OwnerID: "user-1", Name: "Romance Book", Genre: "Romance"},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		OwnerID: "user-1",
		Genre:   "Fantasy",
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "book-1", result.Hits[0].ID)
}

func TestSearchIndex_Search_FlagAndRatingFilters(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", OwnerID: "user-1", Name: "Read And Loved", IsRead: true, Rating: 5},
		{ID: "book-2", OwnerID: "user-1", Name: "Read And Meh", IsRead: true, Rating: 2},
		{ID: "book-3", OwnerID: "user-1", Name: "Unread", IsRead: false},
	}

	err := index.IndexDocuments(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		OwnerID:  "user-1",
		OnlyRead: true,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)

	result, err = index.Search(ctx, SearchParams{
		OwnerID:   "user-1",
		OnlyRead:  true,
		MinRating: 4,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "book-1", result.Hits[0].ID)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{ID: "book-1", OwnerID: "user-1", Name: "Test"}
	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Rebuild - should clear the index
	err = index.Rebuild()
	require.NoError(t, err)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// Create index and add document
	index1, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	doc := &SearchDocument{ID: "book-1", OwnerID: "user-1", Name: "Test Book"}
	err = index1.IndexDocument(doc)
	require.NoError(t, err)

	err = index1.Close()
	require.NoError(t, err)

	// Reopen index and verify document is still there
	index2, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ctx := context.Background()
	result, err := index2.Search(ctx, SearchParams{OwnerID: "user-1", Query: "Test", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestBookToSearchDocument(t *testing.T) {
	now := time.Now()
	book := &domain.Book{
		Syncable: domain.Syncable{
			ID:        "book-123",
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:     "user-1",
		Title:       "The Great Book",
		Author:      "Jane Author",
		Description: "A wonderful tale",
		Genre:       "Fiction",
		Rating:      4.5,
		IsRead:      true,
		IsFavorite:  true,
	}

	doc := BookToSearchDocument(book)

	assert.Equal(t, "book-123", doc.ID)
	assert.Equal(t, "user-1", doc.OwnerID)
	assert.Equal(t, "The Great Book", doc.Name)
	assert.Equal(t, "Jane Author", doc.Author)
	assert.Equal(t, "A wonderful tale", doc.Description)
	assert.Equal(t, "Fiction", doc.Genre)
	assert.Equal(t, 4.5, doc.Rating)
	assert.True(t, doc.IsRead)
	assert.True(t, doc.IsFavorite)
	assert.False(t, doc.IsWishlist)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}

func TestIndexBook_RoundTrip(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()

	book := &domain.Book{
		Syncable: domain.Syncable{ID: "book-1"},
		OwnerID:  "user-1",
		Title:    "Dune",
		Author:   "Frank Herbert",
	}

	require.NoError(t, index.IndexBook(ctx, book))

	result, err := index.Search(ctx, SearchParams{OwnerID: "user-1", Query: "Dune", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)

	require.NoError(t, index.DeleteBook(ctx, "book-1"))

	result, err = index.Search(ctx, SearchParams{OwnerID: "user-1", Query: "Dune", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.Total)
}

func TestSearchIndex_LargeBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large batch test in short mode")
	}

	index, cleanup := setupTestIndex(t)
	defer cleanup()

	// 1000 documents exercises the chunking path (batch size is 500)
	docs := make([]*SearchDocument, 1000)
	for i := 0; i < 1000; i++ {
		docs[i] = &SearchDocument{
			ID:      fmt.Sprintf("book-%d", i),
			OwnerID: "user-1",
			Name:    fmt.Sprintf("Book Number %d", i),
		}
	}

	start := time.Now()
	err := index.IndexDocuments(docs)
	require.NoError(t, err)
	t.Logf("Indexed 1000 documents in %v", time.Since(start))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), count)
}
