package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/prefs"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

func setupSettingsService(t *testing.T) *SettingsService {
	t.Helper()
	prefStore, err := prefs.NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = prefStore.Close() })

	return NewSettingsService(prefStore, store.NewNoopEmitter(), testLogger())
}

func intPtr(i int) *int { return &i }

func TestSettingsGet_Defaults(t *testing.T) {
	svc := setupSettingsService(t)

	p, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), p)
}

func TestSettingsUpdate_MergesPartialChanges(t *testing.T) {
	svc := setupSettingsService(t)
	ctx := context.Background()

	updated, err := svc.Update(ctx, "user-1", UpdatePreferencesRequest{
		Theme:       strPtr("dark"),
		MonthlyGoal: intPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, updated.Theme)
	assert.Equal(t, 7, updated.MonthlyGoal)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.DefaultSemiAnnualGoal, updated.SemiAnnualGoal)
	assert.Equal(t, domain.DefaultAnnualGoal, updated.AnnualGoal)

	// A later partial update preserves the earlier change.
	again, err := svc.Update(ctx, "user-1", UpdatePreferencesRequest{AnnualGoal: intPtr(80)})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, again.Theme)
	assert.Equal(t, 7, again.MonthlyGoal)
	assert.Equal(t, 80, again.AnnualGoal)
}

func TestSettingsUpdate_RejectsUnknownTheme(t *testing.T) {
	svc := setupSettingsService(t)

	_, err := svc.Update(context.Background(), "user-1", UpdatePreferencesRequest{Theme: strPtr("neon")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSettingsUpdate_RejectsOutOfRangeGoals(t *testing.T) {
	svc := setupSettingsService(t)

	_, err := svc.Update(context.Background(), "user-1", UpdatePreferencesRequest{MonthlyGoal: intPtr(-5)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(context.Background(), "user-1", UpdatePreferencesRequest{AnnualGoal: intPtr(999999)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSettingsSubscribe_PrimedSnapshot(t *testing.T) {
	svc := setupSettingsService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "user-1", UpdatePreferencesRequest{Theme: strPtr("dark")})
	require.NoError(t, err)

	ch, cancel, err := svc.Subscribe("user-1")
	require.NoError(t, err)
	defer cancel()

	snapshot := <-ch
	assert.Equal(t, domain.ThemeDark, snapshot.Theme)
}
