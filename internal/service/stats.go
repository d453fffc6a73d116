package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	"github.com/readingroomapp/readingroom-server/internal/prefs"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// StatsService computes reading statistics over a user's library.
type StatsService struct {
	store  *store.Store
	prefs  *prefs.Store
	logger *slog.Logger
}

// NewStatsService creates a new statistics service.
func NewStatsService(st *store.Store, pr *prefs.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  st,
		prefs:  pr,
		logger: logger,
	}
}

// Statistics summarizes the user's library: totals, reads this month and
// year, genre distribution, achievement ladders, and goal context.
// Wishlist-only records do not count toward the collection.
func (s *StatsService) Statistics(ctx context.Context, userID string) (*domain.Statistics, error) {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books for statistics: %w", err)
	}

	now := time.Now()
	stats := &domain.Statistics{}
	genreCounts := make(map[string]int)

	for _, book := range books {
		if book.IsWishlist && !book.IsRead {
			continue
		}

		stats.TotalBooks++

		if book.Genre != "" {
			genreCounts[book.Genre]++
		}

		if !book.IsRead {
			continue
		}
		stats.ReadBooks++

		if book.ReadAt == nil {
			continue
		}
		if domain.SameMonth(*book.ReadAt, now) {
			stats.ReadThisMonth++
		}
		if domain.SameYear(*book.ReadAt, now) {
			stats.ReadThisYear++
		}
	}

	stats.Genres = sortedGenres(genreCounts)

	stats.ReaderStatus = domain.ReaderStatus(stats.ReadBooks)
	stats.ReaderProgress = stats.ReaderStatus.Progress(stats.ReadBooks)
	stats.CollectionStatus = domain.CollectionStatus(stats.TotalBooks)
	stats.CollectionProgress = stats.CollectionStatus.Progress(stats.TotalBooks)

	goals, err := s.prefs.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load goals for statistics, using defaults",
			"user_id", userID,
			"error", err,
		)
		goals = domain.DefaultPreferences()
	}
	stats.MonthlyGoal = goals.MonthlyGoal
	stats.SemiAnnualGoal = goals.SemiAnnualGoal
	stats.AnnualGoal = goals.AnnualGoal

	return stats, nil
}

// sortedGenres flattens the count map, most common genre first.
// Ties break alphabetically so the chart is stable between refreshes.
func sortedGenres(counts map[string]int) []domain.GenreCount {
	genres := make([]domain.GenreCount, 0, len(counts))
	for name, count := range counts {
		genres = append(genres, domain.GenreCount{Name: name, Count: count})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Name < genres[j].Name
	})
	return genres
}
