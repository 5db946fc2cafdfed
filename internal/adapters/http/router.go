// Package http wires the gin router: the WebSocket upgrade route and the
// REST surface that mutates socket-visible state through the same gateway
// broadcast primitives.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/NoahSmiley/fluxchat/internal/adapters/signal"
	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/config"
	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

// authRequired validates the same token sources as the socket upgrade and
// stores the resolved user on the request context.
func authRequired(store storage.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			if v := sessions.Default(c).Get("token"); v != nil {
				token, _ = v.(string)
			}
		}
		sess, err := store.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("user_id", string(sess.UserID))
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString("user_id"))
}

func SetupRouter(ctx context.Context, cfg *config.Config, gw *app.Gateway, store storage.Store, sessionStore storage.SessionStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("FluxSessions", cookieStore))

	ctl := signal.NewController(gw, store, sessionStore, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleSocket(ctx, c)
	})

	rooms := &RoomHandlers{Gateway: gw, Store: store}
	api := r.Group("/api", authRequired(sessionStore))
	api.POST("/rooms", rooms.Create)
	api.POST("/rooms/:id/lock", rooms.ToggleLock)
	api.POST("/rooms/:id/knocks/:userId/accept", rooms.AcceptKnock)
	api.POST("/rooms/:id/force-move", rooms.ForceMove)
	api.POST("/sessions/:id/queue", rooms.EnqueueTrack)
	api.DELETE("/sessions/:id", rooms.EndSession)

	return r
}
