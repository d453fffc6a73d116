package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMyProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get my profile",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMyProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile",
		Summary:     "Update my profile",
		Description: "Updates nickname and discoverability. Nicknames stay unique under case folding.",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadAvatar",
		Method:       http.MethodPost,
		Path:         "/api/v1/profile/avatar",
		Summary:      "Upload avatar image",
		Description:  "Uploads a new avatar image for the authenticated user",
		Tags:         []string{"Profile"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleUploadAvatar)
}

// === DTOs ===

// UpdateProfileInput contains the profile update request.
type UpdateProfileInput struct {
	Body struct {
		Nickname     *string `json:"nickname,omitempty" minLength:"2" maxLength:"50" doc:"New display nickname"`
		Discoverable *bool   `json:"discoverable,omitempty" doc:"Whether the account appears in nickname search"`
	}
}

// UploadAvatarInput carries the raw image body.
type UploadAvatarInput struct {
	ContentType string `header:"Content-Type" doc:"Image content type"`
	RawBody     []byte
}

// ProfileOutput wraps the profile response for Huma.
type ProfileOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleGetMyProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateMyProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.Update(ctx, userID, service.UpdateProfileRequest{
		Nickname:     input.Body.Nickname,
		Discoverable: input.Body.Discoverable,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUploadAvatar(ctx context.Context, input *UploadAvatarInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	filename := userID + extensionForContentType(input.ContentType)
	user, err := s.services.Profile.UploadAvatar(ctx, userID, filename, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapUserResponse(user)}, nil
}
