// Command dbinspect prints a summary of a ReadingRoom document store.
//
// It opens the badger database read-only, so it is safe to point at a
// live server's data directory.
//
// Usage:
//
//	DB_PATH=~/readingroom/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/readingroom/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Printf("=== Store Inspection: %s ===\n\n", dbPath)

	userCount := countPrefix(db, "user:")
	sessionCount := countPrefix(db, "session:")

	books := collectBooks(db, "book:")
	manual := collectBooks(db, "manual:")
	all := append(books, manual...)

	read, wishlist, favorites := 0, 0, 0
	genres := map[string]int{}
	for _, b := range all {
		if b.IsRead {
			read++
		}
		if b.IsWishlist {
			wishlist++
		}
		if b.IsFavorite {
			favorites++
		}
		if b.Genre != "" {
			genres[b.Genre]++
		}
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users:          %d\n", userCount)
	fmt.Printf("Sessions:       %d\n", sessionCount)
	fmt.Printf("Catalog books:  %d\n", len(books))
	fmt.Printf("Manual books:   %d\n", len(manual))
	fmt.Printf("  read:         %d\n", read)
	fmt.Printf("  wishlisted:   %d\n", wishlist)
	fmt.Printf("  favorites:    %d\n", favorites)

	if len(genres) > 0 {
		fmt.Println("\n=== Genres ===")
		type gc struct {
			name  string
			count int
		}
		sorted := make([]gc, 0, len(genres))
		for name, count := range genres {
			sorted = append(sorted, gc{name, count})
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].count != sorted[j].count {
				return sorted[i].count > sorted[j].count
			}
			return sorted[i].name < sorted[j].name
		})
		for _, g := range sorted {
			fmt.Printf("%4d  %s\n", g.count, g.name)
		}
	}
}

// countPrefix counts primary records under a key prefix, skipping the
// "<prefix>idx:" index keys that share it.
func countPrefix(db *badger.DB, prefix string) int {
	count := 0
	idxPrefix := prefix + "idx:"

	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if strings.HasPrefix(string(it.Item().Key()), idxPrefix) {
				continue
			}
			count++
		}
		return nil
	})
	return count
}

func collectBooks(db *badger.DB, prefix string) []*domain.Book {
	var books []*domain.Book
	idxPrefix := prefix + "idx:"

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if strings.HasPrefix(key, idxPrefix) {
				continue
			}

			err := item.Value(func(val []byte) error {
				var book domain.Book
				if err := json.Unmarshal(val, &book); err != nil {
					return err
				}
				if book.DeletedAt == nil {
					books = append(books, &book)
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}
	return books
}
