package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

type voiceRoom struct {
	order []domain.UserID
	parts map[domain.UserID]*domain.VoiceParticipant
}

// VoiceState is one non-empty voice channel with its participants, used to
// hydrate new connections.
type VoiceState struct {
	ChannelID    domain.ChannelID
	Participants []domain.VoiceParticipant
}

// VoiceIndex tracks which users are in which voice channel. A user occupies
// at most one channel at a time across all of their connections; joining a
// new one implicitly leaves the old one.
type VoiceIndex struct {
	mu     sync.RWMutex
	rooms  map[domain.ChannelID]*voiceRoom
	byUser map[domain.UserID]domain.ChannelID
}

func NewVoiceIndex() *VoiceIndex {
	return &VoiceIndex{
		rooms:  make(map[domain.ChannelID]*voiceRoom),
		byUser: make(map[domain.UserID]domain.ChannelID),
	}
}

// Join puts the user into ch with a zero drink count, removing them from
// any channel they were in first. It returns the vacated channel, if any.
func (v *VoiceIndex) Join(userID domain.UserID, displayName string, ch domain.ChannelID) (prev domain.ChannelID, moved bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if old, ok := v.byUser[userID]; ok {
		if old == ch {
			return "", false
		}
		v.removeLocked(userID, old)
		prev, moved = old, true
	}
	room, ok := v.rooms[ch]
	if !ok {
		room = &voiceRoom{parts: make(map[domain.UserID]*domain.VoiceParticipant)}
		v.rooms[ch] = room
	}
	room.order = append(room.order, userID)
	room.parts[userID] = &domain.VoiceParticipant{UserID: userID, DisplayName: displayName}
	v.byUser[userID] = ch
	log.Debug().Str("module", "app.voice").Str("user", string(userID)).Str("channel", string(ch)).Msg("joined voice")
	return prev, moved
}

// Remove takes the user out of ch. It reports whether the channel is now
// empty (and pruned).
func (v *VoiceIndex) Remove(userID domain.UserID, ch domain.ChannelID) (empty bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removeLocked(userID, ch)
	_, alive := v.rooms[ch]
	return !alive
}

func (v *VoiceIndex) removeLocked(userID domain.UserID, ch domain.ChannelID) {
	room, ok := v.rooms[ch]
	if !ok {
		return
	}
	if _, ok := room.parts[userID]; !ok {
		return
	}
	delete(room.parts, userID)
	for i, uid := range room.order {
		if uid == userID {
			room.order = append(room.order[:i], room.order[i+1:]...)
			break
		}
	}
	if v.byUser[userID] == ch {
		delete(v.byUser, userID)
	}
	if len(room.parts) == 0 {
		delete(v.rooms, ch)
	}
}

func (v *VoiceIndex) ChannelOf(userID domain.UserID) (domain.ChannelID, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ch, ok := v.byUser[userID]
	return ch, ok
}

// UpdateDrinkCount sets the drink counter for a user in ch. It is a no-op
// if the user is not currently a participant there.
func (v *VoiceIndex) UpdateDrinkCount(userID domain.UserID, ch domain.ChannelID, count int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	room, ok := v.rooms[ch]
	if !ok {
		return false
	}
	p, ok := room.parts[userID]
	if !ok {
		return false
	}
	p.DrinkCount = count
	return true
}

// Participants returns the channel's participants in join order. The slice
// is a copy; an unknown channel yields an empty slice.
func (v *VoiceIndex) Participants(ch domain.ChannelID) []domain.VoiceParticipant {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.participantsLocked(ch)
}

func (v *VoiceIndex) participantsLocked(ch domain.ChannelID) []domain.VoiceParticipant {
	room, ok := v.rooms[ch]
	if !ok {
		return []domain.VoiceParticipant{}
	}
	out := make([]domain.VoiceParticipant, 0, len(room.order))
	for _, uid := range room.order {
		out = append(out, *room.parts[uid])
	}
	return out
}

// AllStates returns every non-empty voice channel.
func (v *VoiceIndex) AllStates() []VoiceState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]VoiceState, 0, len(v.rooms))
	for ch := range v.rooms {
		out = append(out, VoiceState{ChannelID: ch, Participants: v.participantsLocked(ch)})
	}
	return out
}
