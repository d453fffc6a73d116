package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/sse"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// friendLoadConcurrency caps parallel friend record fetches.
const friendLoadConcurrency = 8

// SocialService manages the one-directional friend graph and user discovery.
type SocialService struct {
	store   *store.Store
	emitter store.EventEmitter
	logger  *slog.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(st *store.Store, emitter store.EventEmitter, logger *slog.Logger) *SocialService {
	return &SocialService{
		store:   st,
		emitter: emitter,
		logger:  logger,
	}
}

// AddFriend puts friendID on userID's friend list. The write touches only
// the requesting user's record; the befriended user is not notified and
// their own list is unchanged. Adding an existing friend is a no-op.
func (s *SocialService) AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	if friendID == "" {
		return nil, apperrors.Validation("friend ID is required")
	}
	if friendID == userID {
		return nil, apperrors.Validation("cannot add yourself as a friend")
	}

	// The friend must exist before going on anyone's list.
	if _, err := s.store.GetUser(ctx, friendID); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.AddFriend(friendID) {
		return user, nil
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save friend list: %w", err)
	}

	s.emitter.Emit(sse.NewFriendAddedEvent(userID, friendID))
	return updated, nil
}

// RemoveFriend drops friendID from userID's friend list.
// Removing someone who was never a friend is a no-op.
func (s *SocialService) RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.RemoveFriend(friendID) {
		return user, nil
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save friend list: %w", err)
	}

	s.emitter.Emit(sse.NewFriendRemovedEvent(userID, friendID))
	return updated, nil
}

// SearchUsers finds discoverable users by nickname prefix, excluding the
// requester and anyone already on their friend list.
func (s *SocialService) SearchUsers(ctx context.Context, requesterID, prefix string) ([]domain.FriendProfile, error) {
	users, err := s.store.SearchUsersByNickname(ctx, requesterID, prefix)
	if err != nil {
		s.logger.Error("user search failed, returning empty",
			"requester_id", requesterID,
			"error", err,
		)
		return []domain.FriendProfile{}, nil
	}

	profiles := make([]domain.FriendProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// FriendLibrary returns the books of one of the user's friends. The gate
// is the requester's own friend list: one-directional friendship is enough,
// matching how friends are added. A user who is not on the list is reported
// as not found, whether or not they exist.
func (s *SocialService) FriendLibrary(ctx context.Context, userID, friendID string) ([]*domain.Book, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasFriend(friendID) {
		return nil, apperrors.NotFoundf("friend %s not found", friendID)
	}

	books, err := s.store.ListBooks(ctx, friendID)
	if err != nil {
		s.logger.Error("friend library load failed, returning empty",
			"user_id", userID,
			"friend_id", friendID,
			"error", err,
		)
		return []*domain.Book{}, nil
	}
	return books, nil
}

// Friends returns a snapshot of the user's friends, fetched concurrently.
// Friends whose records fail to load are omitted from the snapshot rather
// than failing the whole list.
func (s *SocialService) Friends(ctx context.Context, userID string) ([]domain.FriendProfile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.Friends) == 0 {
		return []domain.FriendProfile{}, nil
	}

	var (
		mu       sync.Mutex
		profiles = make([]domain.FriendProfile, 0, len(user.Friends))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(friendLoadConcurrency)
	for _, friendID := range user.Friends {
		g.Go(func() error {
			friend, err := s.store.GetUser(gctx, friendID)
			if err != nil {
				s.logger.Warn("failed to load friend, omitting from list",
					"user_id", userID,
					"friend_id", friendID,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			profiles = append(profiles, friend.Profile())
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}
