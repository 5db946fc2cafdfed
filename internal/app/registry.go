// Package app holds the in-memory state of the gateway: the connection
// registry, subscription indices, voice participant index and the room
// cleanup scheduler. Everything here is owned by a single Gateway value
// constructed at process start and shared by reference.
package app

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// ClientID identifies one live connection. IDs are process-wide and
// strictly increasing; zero is never allocated and means "no client".
type ClientID uint64

// Sender is the outbound side of a connection. Enqueue must never block;
// it reports false once the connection is closed.
type Sender interface {
	Enqueue(payload []byte) bool
}

type conn struct {
	id           ClientID
	userID       domain.UserID
	displayName  string
	sender       Sender
	channels     map[domain.ChannelID]struct{}
	dms          map[domain.ChannelID]struct{}
	voiceChannel domain.ChannelID
	activity     string
	status       domain.Status
}

// ConnSnapshot is the final state of a connection, returned by Unregister
// for post-disconnect side effects.
type ConnSnapshot struct {
	ID           ClientID
	UserID       domain.UserID
	DisplayName  string
	VoiceChannel domain.ChannelID
	Status       domain.Status
	Activity     string
}

type UserStatus struct {
	UserID domain.UserID
	Status domain.Status
}

type UserActivity struct {
	UserID   domain.UserID
	Activity string
}

// Registry is the table of live connections plus the inverted
// channel/DM subscription indices. The indices and each connection's own
// subscription sets are always mutated together under one write lock.
type Registry struct {
	nextID atomic.Uint64

	mu        sync.RWMutex
	conns     map[ClientID]*conn
	byChannel map[domain.ChannelID]map[ClientID]struct{}
	byDM      map[domain.ChannelID]map[ClientID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[ClientID]*conn),
		byChannel: make(map[domain.ChannelID]map[ClientID]struct{}),
		byDM:      make(map[domain.ChannelID]map[ClientID]struct{}),
	}
}

func (r *Registry) AllocateClientID() ClientID {
	return ClientID(r.nextID.Add(1))
}

func (r *Registry) Register(id ClientID, userID domain.UserID, displayName string, sender Sender, status domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &conn{
		id:          id,
		userID:      userID,
		displayName: displayName,
		sender:      sender,
		channels:    make(map[domain.ChannelID]struct{}),
		dms:         make(map[domain.ChannelID]struct{}),
		status:      status,
	}
	log.Info().Str("module", "app.registry").Uint64("client", uint64(id)).Str("user", string(userID)).Msg("registered connection")
}

// Unregister removes the connection from the table and from every
// subscription index it appears in, and returns its final snapshot. The
// voice index is separate state; removing the user from it is the
// caller's job, using the snapshot's VoiceChannel.
func (r *Registry) Unregister(id ClientID) (ConnSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return ConnSnapshot{}, false
	}
	for ch := range c.channels {
		r.dropFromIndex(r.byChannel, ch, id)
	}
	for dm := range c.dms {
		r.dropFromIndex(r.byDM, dm, id)
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Uint64("client", uint64(id)).Str("user", string(c.userID)).Msg("unregistered connection")
	return ConnSnapshot{
		ID:           c.id,
		UserID:       c.userID,
		DisplayName:  c.displayName,
		VoiceChannel: c.voiceChannel,
		Status:       c.status,
		Activity:     c.activity,
	}, true
}

func (r *Registry) dropFromIndex(idx map[domain.ChannelID]map[ClientID]struct{}, key domain.ChannelID, id ClientID) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}

func (r *Registry) SubscribeChannel(id ClientID, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	c.channels[ch] = struct{}{}
	set, ok := r.byChannel[ch]
	if !ok {
		set = make(map[ClientID]struct{})
		r.byChannel[ch] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) UnsubscribeChannel(id ClientID, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	delete(c.channels, ch)
	r.dropFromIndex(r.byChannel, ch, id)
}

func (r *Registry) SubscribeDM(id ClientID, dm domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	c.dms[dm] = struct{}{}
	set, ok := r.byDM[dm]
	if !ok {
		set = make(map[ClientID]struct{})
		r.byDM[dm] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) UnsubscribeDM(id ClientID, dm domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	delete(c.dms, dm)
	r.dropFromIndex(r.byDM, dm, id)
}

// Info returns the identity of a live connection.
func (r *Registry) Info(id ClientID) (userID domain.UserID, displayName string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return "", "", false
	}
	return c.userID, c.displayName, true
}

func (r *Registry) SetVoiceChannel(id ClientID, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.voiceChannel = ch
	}
}

func (r *Registry) VoiceChannelOf(id ClientID) (domain.ChannelID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok || c.voiceChannel == "" {
		return "", false
	}
	return c.voiceChannel, true
}

func (r *Registry) SetStatus(id ClientID, status domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.status = status
	}
}

// StatusOfUser reports the first status found among a user's connections.
func (r *Registry) StatusOfUser(userID domain.UserID) (domain.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if c.userID == userID {
			return c.status, true
		}
	}
	return "", false
}

// OnlineStatuses returns one (user, status) pair per connected user,
// excluding invisible users entirely.
func (r *Registry) OnlineStatuses() []UserStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[domain.UserID]struct{}, len(r.conns))
	out := make([]UserStatus, 0, len(r.conns))
	for _, c := range r.conns {
		if c.status == domain.StatusInvisible {
			continue
		}
		if _, dup := seen[c.userID]; dup {
			continue
		}
		seen[c.userID] = struct{}{}
		out = append(out, UserStatus{UserID: c.userID, Status: c.status})
	}
	return out
}

func (r *Registry) SetActivity(id ClientID, activity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.activity = activity
	}
}

// Activities returns one (user, activity) pair per user that currently has
// a non-empty activity.
func (r *Registry) Activities() []UserActivity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[domain.UserID]struct{}, len(r.conns))
	out := make([]UserActivity, 0, len(r.conns))
	for _, c := range r.conns {
		if c.activity == "" {
			continue
		}
		if _, dup := seen[c.userID]; dup {
			continue
		}
		seen[c.userID] = struct{}{}
		out = append(out, UserActivity{UserID: c.userID, Activity: c.activity})
	}
	return out
}
