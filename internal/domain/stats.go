package domain

import "time"

// GenreCount is one slice of the genre distribution chart.
type GenreCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Statistics summarizes a user's library for the stats screen.
type Statistics struct {
	TotalBooks    int          `json:"total_books"`
	ReadBooks     int          `json:"read_books"`
	ReadThisMonth int          `json:"read_this_month"`
	ReadThisYear  int          `json:"read_this_year"`
	Genres        []GenreCount `json:"genres"`

	ReaderStatus       Milestone `json:"reader_status"`
	CollectionStatus   Milestone `json:"collection_status"`
	ReaderProgress     float64   `json:"reader_progress"`
	CollectionProgress float64   `json:"collection_progress"`

	MonthlyGoal    int `json:"monthly_goal"`
	SemiAnnualGoal int `json:"semi_annual_goal"`
	AnnualGoal     int `json:"annual_goal"`
}

// SameMonth reports whether t falls in the same calendar month as now.
func SameMonth(t, now time.Time) bool {
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// SameYear reports whether t falls in the same calendar year as now.
func SameYear(t, now time.Time) bool {
	return t.Year() == now.Year()
}
