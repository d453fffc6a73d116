// Package domain contains the core business entities and domain logic for the ReadingRoom personal library.
package domain

import (
	"time"

	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

// BookSource identifies which logical collection a book record lives in.
type BookSource string

const (
	// BookSourcePrimary is the main per-user book storage, written by the
	// "add via catalog search" flow. Identifiers are server-assigned.
	BookSourcePrimary BookSource = "primary"
	// BookSourceManual is the secondary storage for hand-entered books.
	// Identifiers are client-assigned.
	BookSourceManual BookSource = "manual"
)

// Book represents one (user, work) pairing in a user's library.
type Book struct {
	Syncable
	OwnerID     string   `json:"owner_id"`
	ExternalID  string   `json:"external_id,omitempty"` // catalog identifier, dedup key when present
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	PageCount   int      `json:"page_count,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Language    string   `json:"language,omitempty"`
	Rating      float64  `json:"rating"` // 0 to 5, stepped by 0.5
	IsRead      bool     `json:"is_read"`
	IsFavorite  bool     `json:"is_favorite"`
	IsWishlist  bool     `json:"is_wishlist"`
	ReadAt      *time.Time `json:"read_at,omitempty"`

	// CoverBlurHash is a low-resolution placeholder computed when the
	// cover is cached locally. Empty until the cache goroutine runs.
	CoverBlurHash string `json:"cover_blur_hash,omitempty"`

	// Case-folded copies maintained solely to support prefix search.
	// The document store has no native case-insensitive text search.
	TitleKey  string `json:"title_key"`
	AuthorKey string `json:"author_key"`
}

// Normalize recomputes the derived search keys from the display fields.
// Must be called before every write.
func (b *Book) Normalize() {
	b.TitleKey = normalize.SearchKey(b.Title)
	b.AuthorKey = normalize.SearchKey(b.Author)
}

// DedupKey is the identity used when merging catalog results against the
// local library: the external catalog ID when present, the record ID otherwise.
func (b *Book) DedupKey() string {
	if b.ExternalID != "" {
		return b.ExternalID
	}
	return b.ID
}

// MarkRead flags the book as read and stamps the read time.
func (b *Book) MarkRead(at time.Time) {
	b.IsRead = true
	b.ReadAt = &at
	b.Touch()
}

// MarkUnread clears the read flag and timestamp.
func (b *Book) MarkUnread() {
	b.IsRead = false
	b.ReadAt = nil
	b.Touch()
}

// ValidRating reports whether r is within [0, 5] on a half-star step.
func ValidRating(r float64) bool {
	if r < 0 || r > 5 {
		return false
	}
	doubled := r * 2
	return doubled == float64(int(doubled))
}
