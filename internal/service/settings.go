package service

import (
	"context"
	"log/slog"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/prefs"
	"github.com/readingroomapp/readingroom-server/internal/sse"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// SettingsService exposes user preferences: theme and reading goals.
type SettingsService struct {
	prefs   *prefs.Store
	emitter store.EventEmitter
	logger  *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(pr *prefs.Store, emitter store.EventEmitter, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		prefs:   pr,
		emitter: emitter,
		logger:  logger,
	}
}

// UpdatePreferencesRequest carries preference changes.
// Nil pointers leave the current value untouched.
type UpdatePreferencesRequest struct {
	Theme          *string `json:"theme,omitempty"`
	MonthlyGoal    *int    `json:"monthly_goal,omitempty" validate:"omitempty,min=1,max=1000"`
	SemiAnnualGoal *int    `json:"semi_annual_goal,omitempty" validate:"omitempty,min=1,max=5000"`
	AnnualGoal     *int    `json:"annual_goal,omitempty" validate:"omitempty,min=1,max=10000"`
}

// Get returns the user's current preferences.
func (s *SettingsService) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	return s.prefs.Get(ctx, userID)
}

// Update merges the request into the stored preferences and broadcasts the
// new snapshot to the user's connected clients.
func (s *SettingsService) Update(ctx context.Context, userID string, req UpdatePreferencesRequest) (domain.Preferences, error) {
	if err := validate.Validate(req); err != nil {
		return domain.Preferences{}, err
	}

	current, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}

	if req.Theme != nil {
		theme := domain.Theme(*req.Theme)
		if !theme.Valid() {
			return domain.Preferences{}, apperrors.Validationf("unknown theme %q", *req.Theme)
		}
		current.Theme = theme
	}
	if req.MonthlyGoal != nil {
		current.MonthlyGoal = *req.MonthlyGoal
	}
	if req.SemiAnnualGoal != nil {
		current.SemiAnnualGoal = *req.SemiAnnualGoal
	}
	if req.AnnualGoal != nil {
		current.AnnualGoal = *req.AnnualGoal
	}

	if err := s.prefs.Set(ctx, userID, current); err != nil {
		return domain.Preferences{}, err
	}

	s.emitter.Emit(sse.NewPreferencesUpdatedEvent(userID, current))
	return current, nil
}

// Subscribe streams preference snapshots for a user, primed with the
// current value. The returned cancel stops the stream.
func (s *SettingsService) Subscribe(userID string) (<-chan domain.Preferences, func(), error) {
	return s.prefs.Subscribe(userID)
}
