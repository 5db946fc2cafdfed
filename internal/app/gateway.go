package app

import (
	"time"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// Gateway bundles the in-memory state shared by every connection task and
// by REST handlers that broadcast. One Gateway lives for the whole process.
type Gateway struct {
	Registry *Registry
	Voice    *VoiceIndex
	Janitor  *Janitor
}

func NewGateway(rooms RoomStore, cleanupDelay, cleanupGrace time.Duration) *Gateway {
	g := &Gateway{
		Registry: NewRegistry(),
		Voice:    NewVoiceIndex(),
	}
	g.Janitor = NewJanitor(cleanupDelay, cleanupGrace, g.Voice, rooms, func(event any) {
		g.BroadcastAll(event, 0)
	})
	return g
}

// JoinVoice moves the connection's user into ch, implicitly leaving any
// channel they were in. It returns the vacated channel, if any, and
// whether that channel is now empty, so the caller can run the same
// on-empty side effects an explicit leave runs.
func (g *Gateway) JoinVoice(id ClientID, ch domain.ChannelID) (prev domain.ChannelID, emptied bool, ok bool) {
	userID, displayName, ok := g.Registry.Info(id)
	if !ok {
		return "", false, false
	}
	prev, moved := g.Voice.Join(userID, displayName, ch)
	g.Registry.SetVoiceChannel(id, ch)
	if moved {
		emptied = len(g.Voice.Participants(prev)) == 0
	}
	return prev, emptied, true
}

// LeaveVoice clears the connection's voice membership and reports whether
// the vacated channel is now empty.
func (g *Gateway) LeaveVoice(id ClientID) (ch domain.ChannelID, empty bool, ok bool) {
	ch, ok = g.Registry.VoiceChannelOf(id)
	if !ok {
		return "", false, false
	}
	userID, _, infoOK := g.Registry.Info(id)
	if !infoOK {
		return "", false, false
	}
	g.Registry.SetVoiceChannel(id, "")
	empty = g.Voice.Remove(userID, ch)
	return ch, empty, true
}
