package domain

// Theme is the client color scheme selection.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid checks if the theme is a recognized value.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark:
		return true
	default:
		return false
	}
}

// Default reading goal values, applied when a stored goal is missing or corrupt.
const (
	DefaultMonthlyGoal    = 5
	DefaultSemiAnnualGoal = 10
	DefaultAnnualGoal     = 50
)

// Preferences holds a user's theme choice and reading goals.
// Stored independently of the book and user records.
type Preferences struct {
	Theme          Theme `json:"theme"`
	MonthlyGoal    int   `json:"monthly_goal"`
	SemiAnnualGoal int   `json:"semi_annual_goal"`
	AnnualGoal     int   `json:"annual_goal"`
}

// DefaultPreferences returns the preferences applied to a user who has
// never saved any.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:          ThemeLight,
		MonthlyGoal:    DefaultMonthlyGoal,
		SemiAnnualGoal: DefaultSemiAnnualGoal,
		AnnualGoal:     DefaultAnnualGoal,
	}
}

// Sanitize replaces unset or invalid fields with defaults.
// Corrupt stored values degrade to defaults rather than erroring.
func (p Preferences) Sanitize() Preferences {
	if !p.Theme.Valid() {
		p.Theme = ThemeLight
	}
	if p.MonthlyGoal <= 0 {
		p.MonthlyGoal = DefaultMonthlyGoal
	}
	if p.SemiAnnualGoal <= 0 {
		p.SemiAnnualGoal = DefaultSemiAnnualGoal
	}
	if p.AnnualGoal <= 0 {
		p.AnnualGoal = DefaultAnnualGoal
	}
	return p
}
