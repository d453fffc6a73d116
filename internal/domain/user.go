package domain

import (
	"slices"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/normalize"
)

// User represents an authenticated user account in the system.
type User struct {
	Syncable
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Nickname     string `json:"nickname"`
	// NicknameKey is the case-folded nickname, maintained for prefix search.
	NicknameKey string   `json:"nickname_key"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Friends     []string `json:"friends"`
	// Discoverable controls whether other users can find this account
	// by nickname search. Off by default.
	Discoverable bool      `json:"discoverable"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Normalize recomputes the derived nickname search key.
// Must be called before every write.
func (u *User) Normalize() {
	u.NicknameKey = normalize.SearchKey(u.Nickname)
}

// HasFriend reports whether friendID is on this user's friend list.
func (u *User) HasFriend(friendID string) bool {
	return slices.Contains(u.Friends, friendID)
}

// AddFriend appends friendID to the friend list if not already present.
// The write is one-directional: the friend's own record is not touched.
// Returns true if the list changed.
func (u *User) AddFriend(friendID string) bool {
	if friendID == "" || friendID == u.ID || u.HasFriend(friendID) {
		return false
	}
	u.Friends = append(u.Friends, friendID)
	u.Touch()
	return true
}

// RemoveFriend drops friendID from the friend list.
// Returns true if the list changed.
func (u *User) RemoveFriend(friendID string) bool {
	i := slices.Index(u.Friends, friendID)
	if i < 0 {
		return false
	}
	u.Friends = slices.Delete(u.Friends, i, i+1)
	u.Touch()
	return true
}

// FriendProfile is the subset of a user record shown on friend lists
// and in nickname search results.
type FriendProfile struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile projects the user into its public friend-facing shape.
func (u *User) Profile() FriendProfile {
	return FriendProfile{
		ID:        u.ID,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
	}
}
