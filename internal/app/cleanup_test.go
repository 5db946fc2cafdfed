package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func newCleanupGateway(store *fakeRoomStore) *app.Gateway {
	return app.NewGateway(store, 20*time.Millisecond, 10*time.Millisecond)
}

func TestCleanupDeletesEmptyRoomExactlyOnce(t *testing.T) {
	store := newFakeRoomStore()
	store.flags["room1"] = domain.ChannelFlags{IsRoom: true}
	g := newCleanupGateway(store)
	_, s := register(g, "alice", domain.StatusOnline)

	g.Janitor.Schedule("room1")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []domain.ChannelID{"room1"}, store.deletions())
	deleted := s.eventsOfType(t, domain.EventRoomDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "room1", deleted[0]["channelId"])
}

func TestCleanupCancelledByRejoin(t *testing.T) {
	store := newFakeRoomStore()
	store.flags["room1"] = domain.ChannelFlags{IsRoom: true}
	g := newCleanupGateway(store)

	g.Janitor.Schedule("room1")
	// A rejoin always cancels before the join is processed.
	g.Janitor.Cancel("room1")
	g.Voice.Join("alice", "Alice", "room1")

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, store.deletions())
}

func TestCleanupAbortsWhenOccupiedAtFireTime(t *testing.T) {
	store := newFakeRoomStore()
	store.flags["room1"] = domain.ChannelFlags{IsRoom: true}
	g := newCleanupGateway(store)

	g.Janitor.Schedule("room1")
	// Even without an explicit cancel, the occupancy re-check wins.
	g.Voice.Join("alice", "Alice", "room1")

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, store.deletions())
}

func TestCleanupRescheduleReplacesPriorTimer(t *testing.T) {
	store := newFakeRoomStore()
	store.flags["room1"] = domain.ChannelFlags{IsRoom: true}
	g := newCleanupGateway(store)

	g.Janitor.Schedule("room1")
	g.Janitor.Schedule("room1")
	g.Janitor.Schedule("room1")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []domain.ChannelID{"room1"}, store.deletions())
}

func TestCleanupSparesPersistentRoomsAndPlainChannels(t *testing.T) {
	store := newFakeRoomStore()
	store.flags["keep"] = domain.ChannelFlags{IsRoom: true, IsPersistent: true}
	store.flags["general"] = domain.ChannelFlags{IsRoom: false}
	g := newCleanupGateway(store)

	g.Janitor.Schedule("keep")
	g.Janitor.Schedule("general")
	g.Janitor.Schedule("unknown")

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, store.deletions())
}

func TestCleanupCancelUnknownChannelIsNoOp(t *testing.T) {
	store := newFakeRoomStore()
	g := newCleanupGateway(store)
	g.Janitor.Cancel("never-scheduled")
}
