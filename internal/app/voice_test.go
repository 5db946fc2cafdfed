package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func TestVoiceJoinMovesBetweenChannels(t *testing.T) {
	v := app.NewVoiceIndex()

	prev, moved := v.Join("alice", "Alice", "a")
	assert.False(t, moved)
	assert.Empty(t, prev)
	assert.Len(t, v.Participants("a"), 1)

	prev, moved = v.Join("alice", "Alice", "b")
	assert.True(t, moved)
	assert.Equal(t, domain.ChannelID("a"), prev)
	assert.Empty(t, v.Participants("a"))
	require.Len(t, v.Participants("b"), 1)

	ch, ok := v.ChannelOf("alice")
	require.True(t, ok)
	assert.Equal(t, domain.ChannelID("b"), ch)

	// Re-joining the current channel is a no-op.
	prev, moved = v.Join("alice", "Alice", "b")
	assert.False(t, moved)
	assert.Empty(t, prev)
	assert.Len(t, v.Participants("b"), 1)
}

func TestVoiceNeverInTwoChannels(t *testing.T) {
	v := app.NewVoiceIndex()
	channels := []domain.ChannelID{"a", "b", "c", "a", "b"}
	for _, ch := range channels {
		v.Join("alice", "Alice", ch)
		total := 0
		for _, st := range v.AllStates() {
			for _, p := range st.Participants {
				if p.UserID == "alice" {
					total++
				}
			}
		}
		assert.Equal(t, 1, total)
	}
}

func TestVoiceRemovePrunesEmptyChannel(t *testing.T) {
	v := app.NewVoiceIndex()
	v.Join("alice", "Alice", "a")
	v.Join("bob", "Bob", "a")

	empty := v.Remove("alice", "a")
	assert.False(t, empty)
	empty = v.Remove("bob", "a")
	assert.True(t, empty)
	assert.Empty(t, v.AllStates())

	// Removing an absent participant is harmless.
	assert.True(t, v.Remove("alice", "a"))
}

func TestVoiceDrinkCountOnlyForParticipants(t *testing.T) {
	v := app.NewVoiceIndex()
	v.Join("alice", "Alice", "a")

	assert.True(t, v.UpdateDrinkCount("alice", "a", 3))
	require.Len(t, v.Participants("a"), 1)
	assert.Equal(t, 3, v.Participants("a")[0].DrinkCount)

	// Wrong channel or unknown user: no-op.
	assert.False(t, v.UpdateDrinkCount("alice", "b", 9))
	assert.False(t, v.UpdateDrinkCount("bob", "a", 9))
	assert.Equal(t, 3, v.Participants("a")[0].DrinkCount)
}

func TestVoiceParticipantsInsertionOrder(t *testing.T) {
	v := app.NewVoiceIndex()
	v.Join("alice", "Alice", "a")
	v.Join("bob", "Bob", "a")
	v.Join("carol", "Carol", "a")
	v.Remove("bob", "a")
	v.Join("bob", "Bob", "a")

	parts := v.Participants("a")
	require.Len(t, parts, 3)
	assert.Equal(t, domain.UserID("alice"), parts[0].UserID)
	assert.Equal(t, domain.UserID("carol"), parts[1].UserID)
	assert.Equal(t, domain.UserID("bob"), parts[2].UserID)
}

func TestVoiceDrinkCountResetsOnRejoin(t *testing.T) {
	v := app.NewVoiceIndex()
	v.Join("alice", "Alice", "a")
	v.UpdateDrinkCount("alice", "a", 5)
	v.Join("alice", "Alice", "b")

	require.Len(t, v.Participants("b"), 1)
	assert.Equal(t, 0, v.Participants("b")[0].DrinkCount)
}
