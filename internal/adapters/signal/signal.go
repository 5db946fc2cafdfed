// Package signal is the WebSocket adapter: upgrade handshake, connection
// lifecycle, and the dispatch of inbound protocol frames into gateway
// state changes, DB writes and broadcasts.
package signal

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/config"
	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Controller struct {
	gw       *app.Gateway
	store    storage.Store
	sessions storage.SessionStore
	cfg      *config.Config
	knocks   *UserRateLimiter
}

func NewController(gw *app.Gateway, store storage.Store, sessionStore storage.SessionStore, cfg *config.Config) *Controller {
	return &Controller{
		gw:       gw,
		store:    store,
		sessions: sessionStore,
		cfg:      cfg,
		knocks:   NewUserRateLimiter(5, time.Minute),
	}
}

// client is the per-connection identity threaded through every handler.
type client struct {
	id          app.ClientID
	userID      domain.UserID
	displayName string
}

// wsConn is one socket plus its unbounded outbound queue. Enqueue never
// blocks; a slow reader grows the queue instead of stalling broadcasts to
// everyone else.
type wsConn struct {
	sock *websocket.Conn
	wake chan struct{}

	mu     sync.Mutex
	queue  [][]byte
	closed bool
}

func newWsConn(sock *websocket.Conn) *wsConn {
	return &wsConn{sock: sock, wake: make(chan struct{}, 1)}
}

func (c *wsConn) Enqueue(payload []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, payload)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *wsConn) drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func (c *wsConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.sock.Close()
}

// extractToken pulls the candidate session token: query parameter first,
// then Authorization bearer, then the session cookie.
func extractToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if v := sessions.Default(c).Get("token"); v != nil {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}

// HandleSocket authenticates and upgrades the connection, hydrates it with
// current state, then runs the two pumps until either ends.
func (ctl *Controller) HandleSocket(ctx context.Context, c *gin.Context) {
	token := extractToken(c)
	sess, err := ctl.sessions.Validate(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade failed")
		return
	}

	conn := newWsConn(ws)
	id := ctl.gw.Registry.AllocateClientID()

	status := domain.StatusOnline
	if pref, err := ctl.store.UserStatus(c.Request.Context(), sess.UserID); err == nil {
		status = pref
	}

	ctl.gw.Registry.Register(id, sess.UserID, sess.DisplayName, conn, status)
	cl := &client{id: id, userID: sess.UserID, displayName: sess.DisplayName}
	log.Info().Str("module", "signal").Uint64("client", uint64(id)).Str("user", string(sess.UserID)).Msg("connection established")

	if status != domain.StatusInvisible {
		ctl.gw.BroadcastAll(domain.PresenceEvent{
			Type: domain.EventPresence, UserID: cl.userID, Status: status,
		}, cl.id)
	}
	ctl.hydrate(cl, status)

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, cancel, conn)
	ctl.readPump(connCtx, cancel, cl, conn)
	ctl.teardown(cl)
}

// hydrate sends the new connection the current shared state: every
// non-empty voice channel, every other online user's presence (invisible
// users excluded), the caller's own true status, and all activities.
func (ctl *Controller) hydrate(cl *client, ownStatus domain.Status) {
	for _, vs := range ctl.gw.Voice.AllStates() {
		ctl.gw.SendTo(cl.id, domain.VoiceStateEvent{
			Type: domain.EventVoiceState, ChannelID: vs.ChannelID, Participants: vs.Participants,
		})
	}
	for _, us := range ctl.gw.Registry.OnlineStatuses() {
		if us.UserID == cl.userID {
			continue
		}
		ctl.gw.SendTo(cl.id, domain.PresenceEvent{
			Type: domain.EventPresence, UserID: us.UserID, Status: us.Status,
		})
	}
	ctl.gw.SendTo(cl.id, domain.PresenceEvent{
		Type: domain.EventPresence, UserID: cl.userID, Status: ownStatus,
	})
	for _, ua := range ctl.gw.Registry.Activities() {
		ctl.gw.SendTo(cl.id, domain.ActivityEvent{
			Type: domain.EventActivity, UserID: ua.UserID, Activity: ua.Activity,
		})
	}
}

// teardown runs exactly once, after the pumps have ended.
func (ctl *Controller) teardown(cl *client) {
	snap, ok := ctl.gw.Registry.Unregister(cl.id)
	if !ok {
		return
	}
	ctx := context.Background()

	if snap.VoiceChannel != "" {
		empty := ctl.gw.Voice.Remove(snap.UserID, snap.VoiceChannel)
		ctl.gw.BroadcastAll(domain.VoiceStateEvent{
			Type:         domain.EventVoiceState,
			ChannelID:    snap.VoiceChannel,
			Participants: ctl.gw.Voice.Participants(snap.VoiceChannel),
		}, 0)
		if empty {
			ctl.onVoiceChannelEmptied(ctx, snap.VoiceChannel)
		}
	}

	ctl.gw.BroadcastAll(domain.ActivityEvent{
		Type: domain.EventActivity, UserID: snap.UserID, Activity: "",
	}, 0)

	if snap.Status != domain.StatusInvisible {
		ctl.gw.BroadcastAll(domain.PresenceEvent{
			Type: domain.EventPresence, UserID: snap.UserID, Status: domain.StatusOffline,
		}, 0)
	}
	log.Info().Str("module", "signal").Uint64("client", uint64(cl.id)).Str("user", string(cl.userID)).Msg("connection closed")
}

// onVoiceChannelEmptied pauses any active listening session on the channel
// and schedules cleanup when the channel is an ephemeral room.
func (ctl *Controller) onVoiceChannelEmptied(ctx context.Context, ch domain.ChannelID) {
	if err := ctl.store.PauseChannelSession(ctx, ch); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", string(ch)).Msg("pause session failed")
	}
	flags, err := ctl.store.ChannelFlags(ctx, ch)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", string(ch)).Msg("channel flags lookup failed")
		return
	}
	if flags.IsRoom && !flags.IsPersistent {
		ctl.gw.Janitor.Schedule(ch)
	}
}
