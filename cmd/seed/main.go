// Command seed populates a ReadingRoom store with demo data.
//
// It creates a handful of users with known passwords and fills their
// libraries with a realistic mix of read books, wishlist entries, and
// favorites, so stats, search, and friend features have something to
// show during development.
//
// Usage:
//
//	DB_PATH=~/readingroom/db go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/genre"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// Every seeded account gets this password.
const demoPassword = "reading-room-demo"

var seedFriends = flag.Bool("friends", true, "Link the seeded users as friends")

type demoUser struct {
	email    string
	nickname string
}

var demoUsers = []demoUser{
	{"ada@example.com", "Ada"},
	{"basil@example.com", "Basil"},
	{"clio@example.com", "Clio"},
}

type demoBook struct {
	title     string
	author    string
	genre     string
	pageCount int
	rating    float64
	isRead    bool
	wishlist  bool
	favorite  bool
}

var demoShelf = []demoBook{
	{"Dune", "Frank Herbert", "Science Fiction", 412, 5, true, false, true},
	{"Hyperion", "Dan Simmons", "Science Fiction", 482, 4.5, true, false, false},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction", 304, 4.5, true, false, true},
	{"The Name of the Wind", "Patrick Rothfuss", "Fantasy", 662, 4, true, false, false},
	{"Piranesi", "Susanna Clarke", "Fantasy", 245, 0, false, false, false},
	{"The Shining", "Stephen King", "Horror", 447, 3.5, true, false, false},
	{"Mexican Gothic", "Silvia Moreno-Garcia", "Horror", 301, 0, false, true, false},
	{"The Thursday Murder Club", "Richard Osman", "Mystery", 382, 0, false, true, false},
	{"Wolf Hall", "Hilary Mantel", "Historical Fiction", 604, 0, false, false, false},
	{"Braiding Sweetgrass", "Robin Wall Kimmerer", "Non-Fiction", 391, 4.5, true, false, true},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/readingroom/db")
	}

	fmt.Printf("Opening store at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := make([]*domain.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		user, err := ensureUser(ctx, s, du)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", du.email, err)
		}
		users = append(users, user)
	}

	for _, user := range users {
		added, err := seedLibrary(ctx, s, user)
		if err != nil {
			log.Fatalf("Failed to seed library for %s: %v", user.Nickname, err)
		}
		fmt.Printf("  %s: %d books added\n", user.Nickname, added)
	}

	if *seedFriends {
		if err := linkFriends(ctx, s, users); err != nil {
			log.Fatalf("Failed to link friends: %v", err)
		}
		fmt.Println("  linked all seeded users as friends")
	}

	fmt.Printf("\nDone. Log in with any seeded email and password %q.\n", demoPassword)
}

// ensureUser creates the demo account, or returns the existing one so
// the tool stays idempotent across runs.
func ensureUser(ctx context.Context, s *store.Store, du demoUser) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, du.email); err == nil {
		return existing, nil
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        du.email,
		PasswordHash: hash,
		Nickname:     du.nickname,
		Discoverable: true,
	}
	created, err := s.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Created user %s (%s)\n", created.Nickname, created.Email)
	return created, nil
}

// seedLibrary gives each user a different slice of the demo shelf so
// libraries overlap without being identical.
func seedLibrary(ctx context.Context, s *store.Store, user *domain.User) (int, error) {
	rng := rand.New(rand.NewSource(int64(len(user.ID) + len(user.Nickname))))
	added := 0

	for i, db := range demoShelf {
		// Roughly two thirds of the shelf per user.
		if (i+len(user.Nickname))%3 == 0 {
			continue
		}

		book := &domain.Book{
			OwnerID:    user.ID,
			ExternalID: "seed-" + genre.Slugify(db.title),
			Title:      db.title,
			Author:     db.author,
			Genre:      db.genre,
			PageCount:  db.pageCount,
			Rating:     db.rating,
			IsRead:     db.isRead,
			IsWishlist: db.wishlist,
			IsFavorite: db.favorite,
		}
		if db.isRead {
			readAt := time.Now().AddDate(0, 0, -rng.Intn(300))
			book.ReadAt = &readAt
		}

		if _, err := s.AddBook(ctx, book); err != nil {
			// Reruns hit existing entries. Skip them.
			if apperrors.Is(err, apperrors.ErrDuplicateBook) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

func linkFriends(ctx context.Context, s *store.Store, users []*domain.User) error {
	for _, user := range users {
		changed := false
		for _, other := range users {
			if user.AddFriend(other.ID) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		if _, err := s.UpdateUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
