package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/domain"
	"github.com/readingroomapp/readingroom-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new user account and logs it in. Nicknames are unique under case folding.",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The presented token is spent.",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the specified session",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "logoutAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout-all",
		Summary:     "Logout everywhere",
		Description: "Revokes every session the user holds",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogoutAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/sessions",
		Summary:     "List sessions",
		Description: "Lists the user's logged-in devices",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)
}

// === DTOs ===

// DeviceInfo contains device metadata for session tracking.
type DeviceInfo struct {
	DeviceType      string `json:"device_type,omitempty" doc:"Device type (mobile, tablet, desktop, web)"`
	Platform        string `json:"platform,omitempty" doc:"Platform (iOS, Android, Windows, macOS, Linux, Web)"`
	PlatformVersion string `json:"platform_version,omitempty" doc:"Platform version (17.2, 14.0, etc.)"`
	ClientName      string `json:"client_name,omitempty" doc:"Client name (ReadingRoom Mobile, etc.)"`
	ClientVersion   string `json:"client_version,omitempty" doc:"Client version (1.0.0)"`
	DeviceName      string `json:"device_name,omitempty" doc:"Human-readable device name"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body struct {
		Email      string     `json:"email" doc:"User email address"`
		Password   string     `json:"password" doc:"User password (min 8 chars)"`
		Nickname   string     `json:"nickname" doc:"Display nickname, unique under case folding"`
		DeviceInfo DeviceInfo `json:"device_info,omitempty" doc:"Client device info"`
	}
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body struct {
		Email      string     `json:"email" doc:"User email"`
		Password   string     `json:"password" doc:"User password"`
		DeviceInfo DeviceInfo `json:"device_info,omitempty" doc:"Client device info"`
	}
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" doc:"Refresh token"`
	}
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body struct {
		SessionID string `json:"session_id" doc:"Session ID to revoke"`
	}
}

// UserResponse contains user information in API responses.
// The password hash never leaves the service layer.
type UserResponse struct {
	ID           string    `json:"id" doc:"User ID"`
	Email        string    `json:"email" doc:"User email"`
	Nickname     string    `json:"nickname" doc:"Display nickname"`
	AvatarURL    string    `json:"avatar_url,omitempty" doc:"Avatar image URL"`
	Discoverable bool      `json:"discoverable" doc:"Whether the account appears in nickname search"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation timestamp"`
	LastLoginAt  time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresAt    time.Time    `json:"expires_at" doc:"Access token expiry"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// SessionResponse describes one logged-in device.
type SessionResponse struct {
	ID         string    `json:"id" doc:"Session ID"`
	DeviceType string    `json:"device_type,omitempty" doc:"Device type"`
	DeviceName string    `json:"device_name,omitempty" doc:"Device name"`
	Platform   string    `json:"platform,omitempty" doc:"Platform"`
	CreatedAt  time.Time `json:"created_at" doc:"When the session was opened"`
	ExpiresAt  time.Time `json:"expires_at" doc:"When the session expires"`
	Revoked    bool      `json:"revoked" doc:"Whether the session has been revoked"`
}

// ListSessionsOutput wraps the session list for Huma.
type ListSessionsOutput struct {
	Body struct {
		Sessions []SessionResponse `json:"sessions" doc:"Open sessions"`
	}
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	req := service.RegisterRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		Nickname:   input.Body.Nickname,
		DeviceInfo: mapDeviceInfo(input.Body.DeviceInfo),
	}

	resp, err := s.services.Auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	req := service.LoginRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		DeviceInfo: mapDeviceInfo(input.Body.DeviceInfo),
	}

	resp, err := s.services.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, userID, input.Body.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

func (s *Server) handleLogoutAll(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.LogoutAll(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "All sessions revoked"}}, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ *struct{}) (*ListSessionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Auth.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &ListSessionsOutput{}
	out.Body.Sessions = make([]SessionResponse, len(sessions))
	for i, sess := range sessions {
		out.Body.Sessions[i] = SessionResponse{
			ID:         sess.ID,
			DeviceType: sess.DeviceType,
			DeviceName: sess.DeviceName,
			Platform:   sess.Platform,
			CreatedAt:  sess.CreatedAt,
			ExpiresAt:  sess.ExpiresAt,
			Revoked:    sess.RevokedAt != nil,
		}
	}
	return out, nil
}

// === Helpers ===

func mapDeviceInfo(d DeviceInfo) auth.DeviceInfo {
	return auth.DeviceInfo{
		DeviceType:      d.DeviceType,
		Platform:        d.Platform,
		PlatformVersion: d.PlatformVersion,
		ClientName:      d.ClientName,
		ClientVersion:   d.ClientVersion,
		DeviceName:      d.DeviceName,
	}
}

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    "Bearer",
		ExpiresAt:    resp.ExpiresAt,
		User:         mapUserResponse(resp.User),
	}
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Nickname:     u.Nickname,
		AvatarURL:    u.AvatarURL,
		Discoverable: u.Discoverable,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
	}
}
