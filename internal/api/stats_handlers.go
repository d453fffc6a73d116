package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStatistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get reading statistics",
		Description: "Returns library counts, genre distribution, milestone progress, and goal settings",
		Tags:        []string{"Statistics"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetStatistics)
}

// === DTOs ===

// GenreCountResponse is one slice of the genre distribution.
type GenreCountResponse struct {
	Name  string `json:"name" doc:"Genre label"`
	Count int    `json:"count" doc:"Books in this genre"`
}

// MilestoneResponse describes an achievement level.
type MilestoneResponse struct {
	Title         string `json:"title" doc:"Milestone title"`
	Description   string `json:"description" doc:"Milestone description"`
	MinBooks      int    `json:"min_books" doc:"Books required to reach this level"`
	NextMilestone int    `json:"next_milestone" doc:"Books required for the next level"`
}

// StatisticsResponse contains the stats screen payload.
type StatisticsResponse struct {
	TotalBooks    int                  `json:"total_books" doc:"Books in the collection (wishlist-only records excluded)"`
	ReadBooks     int                  `json:"read_books" doc:"Books marked read"`
	ReadThisMonth int                  `json:"read_this_month" doc:"Books read this calendar month"`
	ReadThisYear  int                  `json:"read_this_year" doc:"Books read this calendar year"`
	Genres        []GenreCountResponse `json:"genres" doc:"Genre distribution, most common first"`

	ReaderStatus       MilestoneResponse `json:"reader_status" doc:"Reading achievement level"`
	CollectionStatus   MilestoneResponse `json:"collection_status" doc:"Collecting achievement level"`
	ReaderProgress     float64           `json:"reader_progress" doc:"Progress toward the next reading level, 0 to 1"`
	CollectionProgress float64           `json:"collection_progress" doc:"Progress toward the next collecting level, 0 to 1"`

	MonthlyGoal    int `json:"monthly_goal" doc:"Books per month goal"`
	SemiAnnualGoal int `json:"semi_annual_goal" doc:"Books per half-year goal"`
	AnnualGoal     int `json:"annual_goal" doc:"Books per year goal"`
}

// StatisticsOutput wraps the statistics response for Huma.
type StatisticsOutput struct {
	Body StatisticsResponse
}

// === Handlers ===

func (s *Server) handleGetStatistics(ctx context.Context, _ *struct{}) (*StatisticsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.Statistics(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := StatisticsResponse{
		TotalBooks:         stats.TotalBooks,
		ReadBooks:          stats.ReadBooks,
		ReadThisMonth:      stats.ReadThisMonth,
		ReadThisYear:       stats.ReadThisYear,
		Genres:             make([]GenreCountResponse, len(stats.Genres)),
		ReaderStatus:       mapMilestone(stats.ReaderStatus),
		CollectionStatus:   mapMilestone(stats.CollectionStatus),
		ReaderProgress:     stats.ReaderProgress,
		CollectionProgress: stats.CollectionProgress,
		MonthlyGoal:        stats.MonthlyGoal,
		SemiAnnualGoal:     stats.SemiAnnualGoal,
		AnnualGoal:         stats.AnnualGoal,
	}
	for i, g := range stats.Genres {
		resp.Genres[i] = GenreCountResponse{Name: g.Name, Count: g.Count}
	}

	return &StatisticsOutput{Body: resp}, nil
}

// === Helpers ===

func mapMilestone(m domain.Milestone) MilestoneResponse {
	return MilestoneResponse{
		Title:         m.Title,
		Description:   m.Description,
		MinBooks:      m.MinBooks,
		NextMilestone: m.NextMilestone,
	}
}
