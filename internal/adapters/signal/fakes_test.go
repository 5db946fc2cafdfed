package signal

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/config"
	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

type fakeSender struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeSender) Enqueue(p []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return true
}

func (f *fakeSender) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.payloads))
	for _, p := range f.payloads {
		var m map[string]any
		require.NoError(t, json.Unmarshal(p, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeSender) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.events(t) {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = nil
}

type fakeStore struct {
	mu sync.Mutex

	messages  map[domain.MessageID]storage.MessageRow
	indexed   map[domain.MessageID]string
	reactions map[string]struct{}
	dms       map[domain.MessageID]storage.DMMessageRow
	dmMembers map[domain.ChannelID][]domain.UserID
	statuses  map[domain.UserID]domain.Status
	flags     map[domain.ChannelID]domain.ChannelFlags
	deleted   []domain.ChannelID
	knockers  map[domain.ChannelID][]domain.UserID
	keys      map[string]string
	sounds    map[string]storage.SoundRow
	sessions  map[string]storage.SessionRow
	queues    map[string][]string
	paused    []domain.ChannelID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:  make(map[domain.MessageID]storage.MessageRow),
		indexed:   make(map[domain.MessageID]string),
		reactions: make(map[string]struct{}),
		dms:       make(map[domain.MessageID]storage.DMMessageRow),
		dmMembers: make(map[domain.ChannelID][]domain.UserID),
		statuses:  make(map[domain.UserID]domain.Status),
		flags:     make(map[domain.ChannelID]domain.ChannelFlags),
		knockers:  make(map[domain.ChannelID][]domain.UserID),
		keys:      make(map[string]string),
		sounds:    make(map[string]storage.SoundRow),
		sessions:  make(map[string]storage.SessionRow),
		queues:    make(map[string][]string),
	}
}

func (f *fakeStore) SaveMessage(_ context.Context, m storage.MessageRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[m.ID] = m
	return nil
}

func (f *fakeStore) IndexMessage(_ context.Context, id domain.MessageID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[id] = content
	return nil
}

func (f *fakeStore) Message(_ context.Context, id domain.MessageID) (storage.MessageRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return storage.MessageRow{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) UpdateMessage(_ context.Context, id domain.MessageID, content string, editedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.Content = content
	m.EditedAt = &editedAt
	f.messages[id] = m
	return nil
}

func (f *fakeStore) ReindexMessage(_ context.Context, id domain.MessageID, content string) error {
	return f.IndexMessage(context.Background(), id, content)
}

func (f *fakeStore) DeleteMessageIndex(_ context.Context, id domain.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	return nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, id domain.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) LinkAttachments(_ context.Context, _ domain.MessageID, _ domain.UserID, _ []string) error {
	return nil
}

func (f *fakeStore) AddReaction(_ context.Context, id domain.MessageID, user domain.UserID, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := string(id) + "|" + string(user) + "|" + emoji
	if _, dup := f.reactions[key]; dup {
		return false, nil
	}
	f.reactions[key] = struct{}{}
	return true, nil
}

func (f *fakeStore) RemoveReaction(_ context.Context, id domain.MessageID, user domain.UserID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reactions, string(id)+"|"+string(user)+"|"+emoji)
	return nil
}

func (f *fakeStore) SaveDMMessage(_ context.Context, m storage.DMMessageRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[m.ID] = m
	return nil
}

func (f *fakeStore) DMParticipants(_ context.Context, dm domain.ChannelID) ([]domain.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.dmMembers[dm]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return members, nil
}

func (f *fakeStore) UserStatus(_ context.Context, user domain.UserID) (domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[user]
	if !ok {
		return "", storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SaveUserStatus(_ context.Context, user domain.UserID, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[user] = status
	return nil
}

func (f *fakeStore) ChannelFlags(_ context.Context, ch domain.ChannelID) (domain.ChannelFlags, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flags, ok := f.flags[ch]
	if !ok {
		return domain.ChannelFlags{}, storage.ErrNotFound
	}
	return flags, nil
}

func (f *fakeStore) DeleteChannel(_ context.Context, ch domain.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ch)
	return nil
}

func (f *fakeStore) CreateRoom(_ context.Context, ch domain.ChannelID, name string, creator domain.UserID, persistent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[ch] = domain.ChannelFlags{IsRoom: true, IsPersistent: persistent, CreatorID: creator}
	return nil
}

func (f *fakeStore) SetRoomLocked(_ context.Context, ch domain.ChannelID, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	flags := f.flags[ch]
	flags.IsLocked = locked
	f.flags[ch] = flags
	return nil
}

func (f *fakeStore) KnockRecipients(_ context.Context, ch domain.ChannelID) ([]domain.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knockers[ch], nil
}

func (f *fakeStore) UpsertServerKey(_ context.Context, server domain.ServerID, user domain.UserID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[string(server)+"|"+string(user)] = key
	return nil
}

func (f *fakeStore) Sound(_ context.Context, soundID string) (storage.SoundRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sounds[soundID]
	if !ok {
		return storage.SoundRow{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListeningSession(_ context.Context, sessionID string) (storage.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return storage.SessionRow{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SetSessionPlaying(_ context.Context, sessionID string, playing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[sessionID]
	s.Playing = playing
	f.sessions[sessionID] = s
	return nil
}

func (f *fakeStore) SeekSession(_ context.Context, sessionID string, positionMS int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[sessionID]
	s.PositionMS = positionMS
	f.sessions[sessionID] = s
	return nil
}

func (f *fakeStore) SkipSession(_ context.Context, sessionID string) (string, storage.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.queues[sessionID]
	if len(queue) == 0 {
		return "", storage.SessionRow{}, storage.ErrNotFound
	}
	next := queue[0]
	f.queues[sessionID] = queue[1:]
	s := f.sessions[sessionID]
	s.TrackURI = next
	s.PositionMS = 0
	s.Playing = true
	f.sessions[sessionID] = s
	return next, s, nil
}

func (f *fakeStore) EnqueueTrack(_ context.Context, sessionID, trackURI string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[sessionID] = append(f.queues[sessionID], trackURI)
	return append([]string(nil), f.queues[sessionID]...), nil
}

func (f *fakeStore) EndSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	delete(f.queues, sessionID)
	return nil
}

func (f *fakeStore) PauseChannelSession(_ context.Context, ch domain.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = append(f.paused, ch)
	return nil
}

func (f *fakeStore) deletions() []domain.ChannelID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChannelID(nil), f.deleted...)
}

func (f *fakeStore) pausedChannels() []domain.ChannelID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChannelID(nil), f.paused...)
}

type stubSessions struct{}

func (stubSessions) Validate(_ context.Context, _ string) (storage.Session, error) {
	return storage.Session{}, storage.ErrSessionInvalid
}

func newTestController(store *fakeStore) (*Controller, *app.Gateway) {
	gw := app.NewGateway(store, 20*time.Millisecond, 10*time.Millisecond)
	cfg := &config.Config{Mode: "release", PingPeriod: 54 * time.Second, ReadLimit: 32768}
	return NewController(gw, store, stubSessions{}, cfg), gw
}

func connect(gw *app.Gateway, user domain.UserID, status domain.Status) (*client, *fakeSender) {
	id := gw.Registry.AllocateClientID()
	s := &fakeSender{}
	gw.Registry.Register(id, user, string(user), s, status)
	return &client{id: id, userID: user, displayName: string(user)}, s
}
