package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPreferences_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Get("/api/v1/preferences", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var prefs PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &prefs))
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, 5, prefs.MonthlyGoal)
	assert.Equal(t, 10, prefs.SemiAnnualGoal)
	assert.Equal(t, 50, prefs.AnnualGoal)
}

func TestUpdatePreferences_PartialMerge(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Patch("/api/v1/preferences", "Authorization: Bearer "+token, map[string]any{
		"theme":        "dark",
		"monthly_goal": 8,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var prefs PreferencesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &prefs))
	assert.Equal(t, "dark", prefs.Theme)
	assert.Equal(t, 8, prefs.MonthlyGoal)
	assert.Equal(t, 50, prefs.AnnualGoal, "untouched goals keep their values")

	// The merge persisted.
	get := ts.api.Get("/api/v1/preferences", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, get.Code)
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &prefs))
	assert.Equal(t, "dark", prefs.Theme)
	assert.Equal(t, 8, prefs.MonthlyGoal)
}

func TestUpdatePreferences_UnknownTheme(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "anna@example.com", "Anna")

	resp := ts.api.Patch("/api/v1/preferences", "Authorization: Bearer "+token, map[string]any{
		"theme": "solarized",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPreferences_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/preferences")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
