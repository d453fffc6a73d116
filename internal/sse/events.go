// Package sse implements Server-Sent Events for real-time library updates and event broadcasting.
package sse

import (
	"time"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

// SSE carries server-to-client updates only; every mutation still goes
// through the normal request/response API.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookCreated represents a book creation event.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a book update event.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book deletion event.
	EventBookDeleted EventType = "book.deleted"

	// EventFriendAdded represents a friend-list addition.
	EventFriendAdded EventType = "friend.added"
	// EventFriendRemoved represents a friend-list removal.
	EventFriendRemoved EventType = "friend.removed"

	// EventPreferencesUpdated represents a change to the user's preferences.
	EventPreferencesUpdated EventType = "preferences.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// When set, the event is only delivered to clients authenticated as
	// this user. Empty string means "broadcast to all".
	UserID string `json:"-"`
}

// BookEventData is the data payload for book create/update events.
type BookEventData struct {
	Book   *domain.Book      `json:"book"`
	Source domain.BookSource `json:"source"`
}

// BookDeletedEventData is the data payload for book delete events.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	BookID    string    `json:"book_id"`
}

// FriendEventData is the data payload for friend add/remove events.
type FriendEventData struct {
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
}

// PreferencesEventData is the data payload for preference change events.
type PreferencesEventData struct {
	Preferences domain.Preferences `json:"preferences"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookCreatedEvent creates a book.created event scoped to the book's owner.
func NewBookCreatedEvent(book *domain.Book, source domain.BookSource) Event {
	return Event{
		Type:      EventBookCreated,
		Timestamp: time.Now(),
		Data:      BookEventData{Book: book, Source: source},
		UserID:    book.OwnerID,
	}
}

// NewBookUpdatedEvent creates a book.updated event scoped to the book's owner.
func NewBookUpdatedEvent(book *domain.Book, source domain.BookSource) Event {
	return Event{
		Type:      EventBookUpdated,
		Timestamp: time.Now(),
		Data:      BookEventData{Book: book, Source: source},
		UserID:    book.OwnerID,
	}
}

// NewBookDeletedEvent creates a book.deleted event scoped to the owner.
func NewBookDeletedEvent(ownerID, bookID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventBookDeleted,
		Timestamp: time.Now(),
		Data:      BookDeletedEventData{BookID: bookID, DeletedAt: deletedAt},
		UserID:    ownerID,
	}
}

// NewFriendAddedEvent creates a friend.added event scoped to the requesting user.
func NewFriendAddedEvent(userID, friendID string) Event {
	return Event{
		Type:      EventFriendAdded,
		Timestamp: time.Now(),
		Data:      FriendEventData{UserID: userID, FriendID: friendID},
		UserID:    userID,
	}
}

// NewFriendRemovedEvent creates a friend.removed event scoped to the requesting user.
func NewFriendRemovedEvent(userID, friendID string) Event {
	return Event{
		Type:      EventFriendRemoved,
		Timestamp: time.Now(),
		Data:      FriendEventData{UserID: userID, FriendID: friendID},
		UserID:    userID,
	}
}

// NewPreferencesUpdatedEvent creates a preferences.updated event scoped to the user.
func NewPreferencesUpdatedEvent(userID string, prefs domain.Preferences) Event {
	return Event{
		Type:      EventPreferencesUpdated,
		Timestamp: time.Now(),
		Data:      PreferencesEventData{Preferences: prefs},
		UserID:    userID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatEventData{ServerTime: time.Now()},
	}
}
