package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// RoomStore is the slice of the DB collaborator the janitor needs.
type RoomStore interface {
	ChannelFlags(ctx context.Context, ch domain.ChannelID) (domain.ChannelFlags, error)
	DeleteChannel(ctx context.Context, ch domain.ChannelID) error
}

type timerEntry struct {
	cancel context.CancelFunc
}

// Janitor deletes empty ephemeral rooms after a delay. Each channel has at
// most one scheduled timer; scheduling cancels any prior timer for the
// same channel, and Cancel must run before any voice join is processed so
// that "last leave schedules" and "rejoin cancels" commute under any
// interleaving.
type Janitor struct {
	delay  time.Duration
	grace  time.Duration
	voice  *VoiceIndex
	store  RoomStore
	notify func(event any)

	mu     sync.Mutex
	timers map[domain.ChannelID]*timerEntry
}

func NewJanitor(delay, grace time.Duration, voice *VoiceIndex, store RoomStore, notify func(event any)) *Janitor {
	return &Janitor{
		delay:  delay,
		grace:  grace,
		voice:  voice,
		store:  store,
		notify: notify,
		timers: make(map[domain.ChannelID]*timerEntry),
	}
}

func (j *Janitor) Schedule(ch domain.ChannelID) {
	j.mu.Lock()
	if old, ok := j.timers[ch]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	entry := &timerEntry{cancel: cancel}
	j.timers[ch] = entry
	j.mu.Unlock()

	log.Debug().Str("module", "app.janitor").Str("channel", string(ch)).Msg("scheduled room cleanup")
	go j.run(ctx, ch, entry)
}

func (j *Janitor) Cancel(ch domain.ChannelID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry, ok := j.timers[ch]; ok {
		entry.cancel()
		delete(j.timers, ch)
		log.Debug().Str("module", "app.janitor").Str("channel", string(ch)).Msg("cancelled room cleanup")
	}
}

func (j *Janitor) run(ctx context.Context, ch domain.ChannelID, entry *timerEntry) {
	defer func() {
		j.mu.Lock()
		if j.timers[ch] == entry {
			delete(j.timers, ch)
		}
		j.mu.Unlock()
	}()

	select {
	case <-time.After(j.delay):
	case <-ctx.Done():
		return
	}
	if len(j.voice.Participants(ch)) > 0 {
		return
	}
	// Debounce against a racing rejoin before touching the DB.
	select {
	case <-time.After(j.grace):
	case <-ctx.Done():
		return
	}
	if len(j.voice.Participants(ch)) > 0 {
		return
	}

	flags, err := j.store.ChannelFlags(ctx, ch)
	if err != nil {
		log.Error().Err(err).Str("module", "app.janitor").Str("channel", string(ch)).Msg("channel flags lookup failed")
		return
	}
	if !flags.IsRoom || flags.IsPersistent {
		return
	}
	if err := j.store.DeleteChannel(ctx, ch); err != nil {
		log.Error().Err(err).Str("module", "app.janitor").Str("channel", string(ch)).Msg("room delete failed")
		return
	}
	log.Info().Str("module", "app.janitor").Str("channel", string(ch)).Msg("deleted empty room")
	j.notify(domain.RoomDeletedEvent{Type: domain.EventRoomDeleted, ChannelID: ch})
}
