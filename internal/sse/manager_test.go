package sse

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

func testManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConnect_RequiresUser(t *testing.T) {
	m := testManager()

	_, err := m.Connect("")
	require.ErrorIs(t, err, ErrNoUser)
	assert.Equal(t, 0, m.ClientCount())
}

func TestBroadcast_ScopedToUser(t *testing.T) {
	m := testManager()

	owner, err := m.Connect("user-1")
	require.NoError(t, err)
	other, err := m.Connect("user-2")
	require.NoError(t, err)

	book := &domain.Book{OwnerID: "user-1", Title: "Dune"}
	book.ID = "book-1"
	m.broadcast(NewBookCreatedEvent(book, domain.BookSourcePrimary))

	select {
	case ev := <-owner.EventChan:
		assert.Equal(t, EventBookCreated, ev.Type)
		assert.Equal(t, "user-1", ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("owner did not receive their own event")
	}

	select {
	case ev := <-other.EventChan:
		t.Fatalf("event for user-1 delivered to user-2: %s", ev.Type)
	default:
	}
}

func TestBroadcast_HeartbeatReachesEveryone(t *testing.T) {
	m := testManager()

	a, err := m.Connect("user-1")
	require.NoError(t, err)
	b, err := m.Connect("user-2")
	require.NoError(t, err)

	m.broadcast(NewHeartbeatEvent())

	for _, client := range []*Client{a, b} {
		select {
		case ev := <-client.EventChan:
			assert.Equal(t, EventHeartbeat, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("heartbeat not delivered")
		}
	}
}
