package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
)

func newTestUser(email, nickname string) *domain.User {
	return &domain.User{
		Email:        email,
		Nickname:     nickname,
		Discoverable: true,
	}
}

func TestCreateUser_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "anna", created.NicknameKey)
	require.NotNil(t, created.Friends)

	retrieved, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Anna", retrieved.Nickname)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	// Email comparison is case-insensitive
	_, err = s.CreateUser(ctx, newTestUser("ANNA@example.com", "OtherAnna"))
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	retrieved, err := s.GetUserByEmail(ctx, "Anna@Example.COM")
	require.NoError(t, err)
	require.Equal(t, created.ID, retrieved.ID)
}

func TestUpdateUser_RederivesNicknameKey(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	created.Nickname = "Annabelle"
	updated, err := s.UpdateUser(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "annabelle", updated.NicknameKey)
}

func TestNicknameAvailable(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	available, err := s.NicknameAvailable(ctx, "Anna")
	require.NoError(t, err)
	require.True(t, available)

	_, err = s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	// Folded comparison: "anna" is the same nickname as "Anna"
	available, err = s.NicknameAvailable(ctx, "anna")
	require.NoError(t, err)
	require.False(t, available)

	// "Annabelle" shares the prefix but is a different nickname
	available, err = s.NicknameAvailable(ctx, "Annabelle")
	require.NoError(t, err)
	require.True(t, available)
}

func TestSearchUsersByNickname_PrefixMatch(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	requester, err := s.CreateUser(ctx, newTestUser("me@example.com", "Requester"))
	require.NoError(t, err)

	for _, nickname := range []string{"Anna", "Anne", "Bob"} {
		_, err := s.CreateUser(ctx, newTestUser(nickname+"@example.com", nickname))
		require.NoError(t, err)
	}

	results, err := s.SearchUsersByNickname(ctx, requester.ID, "ann")
	require.NoError(t, err)

	nicknames := make([]string, 0, len(results))
	for _, u := range results {
		nicknames = append(nicknames, u.Nickname)
	}
	require.ElementsMatch(t, []string{"Anna", "Anne"}, nicknames)
}

func TestSearchUsersByNickname_Exclusions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	requester, err := s.CreateUser(ctx, newTestUser("ann@example.com", "Annika"))
	require.NoError(t, err)

	friend, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	hidden := newTestUser("anne@example.com", "Anne")
	hidden.Discoverable = false
	_, err = s.CreateUser(ctx, hidden)
	require.NoError(t, err)

	stranger, err := s.CreateUser(ctx, newTestUser("annette@example.com", "Annette"))
	require.NoError(t, err)

	requester.AddFriend(friend.ID)
	_, err = s.UpdateUser(ctx, requester)
	require.NoError(t, err)

	// The requester themselves, their friend, and the opted-out user are
	// all filtered; only the stranger remains
	results, err := s.SearchUsersByNickname(ctx, requester.ID, "ann")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, stranger.ID, results[0].ID)
}

func TestGetUsersByIDs_OmitsMissing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	anna, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, newTestUser("bob@example.com", "Bob"))
	require.NoError(t, err)

	users, err := s.GetUsersByIDs(ctx, []string{anna.ID, "user-gone", bob.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = s.GetUsersByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestTouchLastLogin(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	created, err := s.CreateUser(ctx, newTestUser("anna@example.com", "Anna"))
	require.NoError(t, err)

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.TouchLastLogin(ctx, created.ID, at))

	retrieved, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.WithinDuration(t, at, retrieved.LastLoginAt, time.Second)
}
