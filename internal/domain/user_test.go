package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Normalize(t *testing.T) {
	u := User{Nickname: "  Anna Karenina "}
	u.Normalize()
	assert.Equal(t, "anna karenina", u.NicknameKey)
}

func TestUser_AddFriend(t *testing.T) {
	u := User{}
	u.ID = "user-a"

	assert.True(t, u.AddFriend("user-b"))
	assert.True(t, u.HasFriend("user-b"))

	// Duplicate add is a no-op.
	assert.False(t, u.AddFriend("user-b"))
	assert.Len(t, u.Friends, 1)

	// Self and empty are rejected.
	assert.False(t, u.AddFriend("user-a"))
	assert.False(t, u.AddFriend(""))
}

func TestUser_RemoveFriend(t *testing.T) {
	u := User{Friends: []string{"user-b", "user-c"}}
	u.ID = "user-a"

	assert.True(t, u.RemoveFriend("user-b"))
	assert.Equal(t, []string{"user-c"}, u.Friends)

	// Removing an absent friend is a no-op.
	assert.False(t, u.RemoveFriend("user-b"))
	assert.Len(t, u.Friends, 1)
}

func TestUser_Profile(t *testing.T) {
	u := User{Nickname: "Anna", AvatarURL: "https://example.com/a.png"}
	u.ID = "user-a"
	u.PasswordHash = "secret"

	p := u.Profile()
	assert.Equal(t, "user-a", p.ID)
	assert.Equal(t, "Anna", p.Nickname)
	assert.Equal(t, "https://example.com/a.png", p.AvatarURL)
}
