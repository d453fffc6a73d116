package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/normalize"
	"github.com/readingroomapp/readingroom-server/internal/store"
	"github.com/readingroomapp/readingroom-server/internal/uploader"
)

// ProfileService manages the user's own account record.
type ProfileService struct {
	store     *store.Store
	uploader  *uploader.Client
	processor *images.Processor
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
// uploader may be nil when avatar uploads are disabled.
func NewProfileService(st *store.Store, up *uploader.Client, processor *images.Processor, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:     st,
		uploader:  up,
		processor: processor,
		logger:    logger,
	}
}

// UpdateProfileRequest carries the editable profile fields.
// Nil pointers leave the current value untouched.
type UpdateProfileRequest struct {
	Nickname     *string `json:"nickname,omitempty" validate:"omitempty,min=2,max=50"`
	Discoverable *bool   `json:"discoverable,omitempty"`
}

// Get returns the user's own record.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// Update applies profile changes. A nickname change re-checks availability
// under case folding before it lands.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Nickname != nil {
		// Recasing your own nickname skips the availability check.
		if normalize.SearchKey(*req.Nickname) != user.NicknameKey {
			available, err := s.store.NicknameAvailable(ctx, *req.Nickname)
			if err != nil {
				return nil, fmt.Errorf("check nickname availability: %w", err)
			}
			if !available {
				return nil, apperrors.AlreadyExists("nickname already taken")
			}
		}
		user.Nickname = *req.Nickname
	}
	if req.Discoverable != nil {
		user.Discoverable = *req.Discoverable
	}

	user.Touch()
	return s.store.UpdateUser(ctx, user)
}

// UploadAvatar validates an uploaded image, pushes it to the upload
// service, and points the user record at the returned durable URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (*domain.User, error) {
	if s.uploader == nil {
		return nil, apperrors.Validation("image uploads are not configured")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	info, err := s.processor.Process(data)
	if err != nil {
		return nil, apperrors.Validation("unsupported or corrupt image").WithCause(err)
	}

	url, err := s.uploader.Upload(ctx, filename, data, "avatars")
	if err != nil {
		return nil, apperrors.Upstream("avatar upload failed", err)
	}

	user.AvatarURL = url
	user.Touch()

	s.logger.Info("avatar uploaded",
		"user_id", userID,
		"format", info.Format,
		"width", info.Width,
		"height", info.Height,
	)

	return s.store.UpdateUser(ctx, user)
}
