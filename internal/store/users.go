package store

import (
	"context"
	"strings"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/id"
	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

// Nickname search results are capped regardless of how broad the prefix is.
const userSearchLimit = 20

// CreateUser creates a new user account with a server-assigned ID.
// Email uniqueness is enforced case-insensitively via the email index.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if strings.TrimSpace(user.Email) == "" {
		return nil, apperrors.Validation("email is required")
	}
	if strings.TrimSpace(user.Nickname) == "" {
		return nil, apperrors.Validation("nickname is required")
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, apperrors.Internal("generate user id").WithCause(err)
	}
	user.ID = userID
	user.InitTimestamps()
	user.Normalize()
	if user.Friends == nil {
		user.Friends = []string{}
	}

	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		if apperrors.Is(err, ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("email already in use")
		}
		return nil, apperrors.Internal("create user").WithCause(err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return nil, apperrors.Internal("get user").WithCause(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, "email", email)
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("get user by email").WithCause(err)
	}
	return user, nil
}

// UpdateUser writes a user record back, re-deriving the folded nickname key.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, apperrors.Validation("user id is required")
	}

	user.Touch()
	user.Normalize()

	if err := s.Users.Update(ctx, user.ID, user); err != nil {
		if apperrors.Is(err, ErrNotFound) {
			return nil, apperrors.NotFoundf("user %s not found", user.ID)
		}
		if apperrors.Is(err, ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("email already in use")
		}
		return nil, apperrors.Internal("update user").WithCause(err)
	}

	return user, nil
}

// TouchLastLogin stamps the user's last login time.
func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.LastLoginAt = at
	_, err = s.UpdateUser(ctx, user)
	return err
}

// NicknameAvailable reports whether no user currently holds the given
// nickname, compared case-folded.
func (s *Store) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	key := normalize.SearchKey(nickname)
	if key == "" {
		return false, apperrors.Validation("nickname is required")
	}

	// The nickname index keys are "<folded>:<id>", so an exact-nickname probe
	// is a prefix scan for "<folded>:".
	matches, err := s.Users.ListByIndexPrefix(ctx, "nickname", key+":", 1)
	if err != nil {
		return false, apperrors.Internal("check nickname").WithCause(err)
	}
	return len(matches) == 0, nil
}

// SearchUsersByNickname runs a case-folded prefix scan over the nickname
// index. The requester, their existing friends, and users who opted out of
// discovery are excluded from results. Capped at 20.
func (s *Store) SearchUsersByNickname(ctx context.Context, requesterID, prefix string) ([]*domain.User, error) {
	key := normalize.SearchKey(prefix)
	if key == "" {
		return nil, nil
	}

	requester, err := s.GetUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	// Over-fetch so post-filtering still fills the cap.
	candidates, err := s.Users.ListByIndexPrefix(ctx, "nickname", key, userSearchLimit*2)
	if err != nil {
		return nil, apperrors.Internal("search users").WithCause(err)
	}

	results := make([]*domain.User, 0, len(candidates))
	for _, u := range candidates {
		if u.ID == requesterID || !u.Discoverable || requester.HasFriend(u.ID) {
			continue
		}
		results = append(results, u)
		if len(results) >= userSearchLimit {
			break
		}
	}

	return results, nil
}

// GetUsersByIDs fetches the given users, silently omitting any that are
// missing or unreadable. Friend lists can hold IDs of records that failed
// to load; a partial snapshot beats an error.
func (s *Store) GetUsersByIDs(ctx context.Context, userIDs []string) ([]*domain.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	users := make([]*domain.User, 0, len(userIDs))
	for _, uid := range userIDs {
		user, err := s.Users.Get(ctx, uid)
		if err != nil {
			if !apperrors.Is(err, ErrNotFound) && s.logger != nil {
				s.logger.Warn("failed to load user", "user_id", uid, "error", err)
			}
			continue
		}
		users = append(users, user)
	}

	return users, nil
}
