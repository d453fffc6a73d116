package store

import (
	"context"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/id"
)

// CreateSession records a new logged-in device for a user.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session.UserID == "" {
		return nil, apperrors.Validation("user id is required")
	}
	if session.RefreshTokenHash == "" {
		return nil, apperrors.Validation("refresh token hash is required")
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, apperrors.Internal("generate session id").WithCause(err)
	}
	session.ID = sessionID
	session.InitTimestamps()
	session.LastUsedAt = session.CreatedAt

	if err := s.Sessions.Create(ctx, session.ID, session); err != nil {
		return nil, apperrors.Internal("create session").WithCause(err)
	}

	return session, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFoundf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, apperrors.Internal("get session").WithCause(err)
	}
	return session, nil
}

// GetSessionByTokenHash looks up the session holding the given refresh token hash.
// Used on token rotation; the raw token never reaches the store.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	session, err := s.Sessions.GetByIndex(ctx, "token", tokenHash)
	if apperrors.Is(err, ErrNotFound) {
		return nil, apperrors.Unauthorized("unknown refresh token")
	}
	if err != nil {
		return nil, apperrors.Internal("get session by token").WithCause(err)
	}
	return session, nil
}

// UpdateSession writes a session back, stamping last use.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	session.LastUsedAt = time.Now()
	session.Touch()

	if err := s.Sessions.Update(ctx, session.ID, session); err != nil {
		if apperrors.Is(err, ErrNotFound) {
			return apperrors.NotFoundf("session %s not found", session.ID)
		}
		return apperrors.Internal("update session").WithCause(err)
	}
	return nil
}

// DeleteSession removes a session. Idempotent.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Internal("delete session").WithCause(err)
	}
	return nil
}

// ListUserSessions returns every session belonging to a user.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessions, err := s.Sessions.ListByIndexPrefix(ctx, "user", userID+":", 0)
	if err != nil {
		return nil, apperrors.Internal("list sessions").WithCause(err)
	}
	return sessions, nil
}

// RevokeUserSessions revokes every session a user holds, for password
// changes and account-wide logout.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string) error {
	sessions, err := s.ListUserSessions(ctx, userID)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		if session.RevokedAt != nil {
			continue
		}
		session.Revoke()
		if err := s.Sessions.Update(ctx, session.ID, session); err != nil {
			return apperrors.Internal("revoke session").WithCause(err)
		}
	}
	return nil
}

// PruneExpiredSessions deletes sessions past their expiry or revoked.
// Called periodically from the server's background maintenance loop.
func (s *Store) PruneExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	pruned := 0
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return pruned, apperrors.Internal("scan sessions").WithCause(err)
		}
		if session.IsValid(now) {
			continue
		}
		if err := s.Sessions.Delete(ctx, session.ID); err != nil {
			return pruned, apperrors.Internal("prune session").WithCause(err)
		}
		pruned++
	}
	return pruned, nil
}
