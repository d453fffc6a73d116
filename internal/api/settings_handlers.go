package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/preferences",
		Summary:     "Get preferences",
		Description: "Returns the user's preferences, defaults when none were ever saved",
		Tags:        []string{"Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePreferences",
		Method:      http.MethodPatch,
		Path:        "/api/v1/preferences",
		Summary:     "Update preferences",
		Description: "Merges partial preference changes over the stored values",
		Tags:        []string{"Settings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePreferences)
}

// === DTOs ===

// PreferencesResponse contains the user's preferences.
type PreferencesResponse struct {
	Theme          string `json:"theme" doc:"UI theme (light or dark)"`
	MonthlyGoal    int    `json:"monthly_goal" doc:"Books per month goal"`
	SemiAnnualGoal int    `json:"semi_annual_goal" doc:"Books per half-year goal"`
	AnnualGoal     int    `json:"annual_goal" doc:"Books per year goal"`
}

// PreferencesOutput wraps the preferences response for Huma.
type PreferencesOutput struct {
	Body PreferencesResponse
}

// UpdatePreferencesInput contains partial preference changes.
type UpdatePreferencesInput struct {
	Body struct {
		Theme          *string `json:"theme,omitempty" doc:"UI theme (light or dark)"`
		MonthlyGoal    *int    `json:"monthly_goal,omitempty" doc:"Books per month goal"`
		SemiAnnualGoal *int    `json:"semi_annual_goal,omitempty" doc:"Books per half-year goal"`
		AnnualGoal     *int    `json:"annual_goal,omitempty" doc:"Books per year goal"`
	}
}

// === Handlers ===

func (s *Server) handleGetPreferences(ctx context.Context, _ *struct{}) (*PreferencesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferences(prefs)}, nil
}

func (s *Server) handleUpdatePreferences(ctx context.Context, input *UpdatePreferencesInput) (*PreferencesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Settings.Update(ctx, userID, service.UpdatePreferencesRequest{
		Theme:          input.Body.Theme,
		MonthlyGoal:    input.Body.MonthlyGoal,
		SemiAnnualGoal: input.Body.SemiAnnualGoal,
		AnnualGoal:     input.Body.AnnualGoal,
	})
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferences(prefs)}, nil
}

// === Helpers ===

func mapPreferences(p domain.Preferences) PreferencesResponse {
	return PreferencesResponse{
		Theme:          string(p.Theme),
		MonthlyGoal:    p.MonthlyGoal,
		SemiAnnualGoal: p.SemiAnnualGoal,
		AnnualGoal:     p.AnnualGoal,
	}
}
