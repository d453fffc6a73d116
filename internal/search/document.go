// Package search provides full-text search over a user's library using Bleve.
// It complements the store's prefix scans with stemmed, fuzzy, and ranked
// matching across title, author, description, and genre.
package search

import (
	"github.com/readingroomapp/readingroom-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
// Every book record, primary or manual, is indexed with its owner so that
// queries can be scoped to one user's library.
type SearchDocument struct {
	// Identity
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"` // Mandatory scope filter on every query

	// Searchable text
	Name        string `json:"name"` // Book title
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`

	// Exact-match fields
	Genre string `json:"genre,omitempty"`

	// Flags surfaced as filters
	IsRead     bool `json:"is_read"`
	IsFavorite bool `json:"is_favorite"`
	IsWishlist bool `json:"is_wishlist"`

	// Numeric fields for range queries and sorting
	Rating float64 `json:"rating,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"owner_id":    d.OwnerID,
		"name":        d.Name,
		"is_read":     d.IsRead,
		"is_favorite": d.IsFavorite,
		"is_wishlist": d.IsWishlist,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if d.Rating > 0 {
		m["rating"] = d.Rating
	}

	return m
}

// BookToSearchDocument converts a domain Book to a SearchDocument.
func BookToSearchDocument(book *domain.Book) *SearchDocument {
	return &SearchDocument{
		ID:          book.ID,
		OwnerID:     book.OwnerID,
		Name:        book.Title,
		Author:      book.Author,
		Description: book.Description,
		Genre:       book.Genre,
		IsRead:      book.IsRead,
		IsFavorite:  book.IsFavorite,
		IsWishlist:  book.IsWishlist,
		Rating:      book.Rating,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}
