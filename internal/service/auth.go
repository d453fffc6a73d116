package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/auth"
	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// AuthService handles sign-up, login, token refresh, and session revocation.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  st,
		tokens: tokens,
		logger: logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8,max=1024"`
	Nickname   string          `json:"nickname" validate:"required,min=2,max=50"`
	DeviceInfo auth.DeviceInfo `json:"device_info"`
}

// LoginRequest contains user credentials and device information.
type LoginRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required"`
	DeviceInfo auth.DeviceInfo `json:"device_info"`
}

// RefreshRequest contains the refresh token presented for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains tokens and the authenticated user.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	SessionID    string       `json:"session_id"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Register creates a new account and logs it in.
// Nicknames are unique under case folding: "Anna" blocks "anna".
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	available, err := s.store.NicknameAvailable(ctx, req.Nickname)
	if err != nil {
		return nil, fmt.Errorf("check nickname availability: %w", err)
	}
	if !available {
		return nil, apperrors.AlreadyExists("nickname already taken")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Nickname:     req.Nickname,
		Friends:      []string{},
		LastLoginAt:  now,
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", created.ID, "nickname", created.Nickname)

	return s.issueSession(ctx, created, req.DeviceInfo)
}

// Login authenticates credentials and opens a new session.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	return s.issueSession(ctx, user, req.DeviceInfo)
}

// Refresh rotates a refresh token: the presented token is invalidated and
// replaced, and a fresh access token is minted.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.store.GetSessionByTokenHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return nil, err
	}
	if !session.IsValid(time.Now()) {
		return nil, apperrors.Unauthorized("session expired or revoked")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session.RefreshTokenHash = auth.HashRefreshToken(refreshToken)
	session.ExpiresAt = time.Now().Add(s.tokens.RefreshTokenDuration())
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}

// Logout ends one session. The session must belong to the caller.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Already gone, nothing to do.
			return nil
		}
		return err
	}
	if session.UserID != userID {
		return apperrors.Forbidden("session belongs to another user")
	}
	return s.store.DeleteSession(ctx, sessionID)
}

// LogoutAll revokes every session the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.store.RevokeUserSessions(ctx, userID)
}

// Sessions lists the user's logged-in devices.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.store.ListUserSessions(ctx, userID)
}

// VerifyAccessToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// issueSession creates a session record and mints the token pair.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User, device auth.DeviceInfo) (*AuthResponse, error) {
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session := &domain.Session{
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		DeviceType:       device.DeviceType,
		DeviceName:       device.DeviceName,
		Platform:         device.Platform,
		ExpiresAt:        time.Now().Add(s.tokens.RefreshTokenDuration()),
	}

	created, err := s.store.CreateSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		SessionID:    created.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}
