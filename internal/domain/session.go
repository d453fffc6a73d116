package domain

import "time"

// Session represents one logged-in device holding a refresh token.
// The refresh token itself is never stored, only its hash.
type Session struct {
	Syncable
	UserID           string     `json:"user_id"`
	RefreshTokenHash string     `json:"refresh_token_hash"`
	DeviceType       string     `json:"device_type,omitempty"`
	DeviceName       string     `json:"device_name,omitempty"`
	Platform         string     `json:"platform,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt       time.Time  `json:"last_used_at"`
}

// IsValid reports whether the session can still mint access tokens.
func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Revoke invalidates the session.
func (s *Session) Revoke() {
	now := time.Now()
	s.RevokedAt = &now
	s.Touch()
}
