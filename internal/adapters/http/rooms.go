package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/app"
	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

// RoomHandlers is the REST side of room and listening-session lifecycle.
// Every mutation commits to the DB first and then reuses the gateway
// broadcast primitives, so clients cannot distinguish REST-origin changes
// from socket-origin ones.
type RoomHandlers struct {
	Gateway *app.Gateway
	Store   storage.Store
}

func (h *RoomHandlers) Create(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Persistent bool   `json:"persistent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}
	if err := domain.ValidDisplayName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := domain.ChannelID(uuid.NewString())
	creator := currentUser(c)
	if err := h.Store.CreateRoom(c.Request.Context(), ch, req.Name, creator, req.Persistent); err != nil {
		log.Error().Err(err).Str("module", "rest.rooms").Msg("create room failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.Gateway.BroadcastAll(domain.RoomCreatedEvent{
		Type:      domain.EventRoomCreated,
		ChannelID: ch,
		Name:      req.Name,
		CreatorID: creator,
		Persisted: req.Persistent,
	}, 0)
	c.JSON(http.StatusCreated, gin.H{"channelId": ch})
}

func (h *RoomHandlers) ToggleLock(c *gin.Context) {
	ch := domain.ChannelID(c.Param("id"))
	ctx := c.Request.Context()

	flags, err := h.Store.ChannelFlags(ctx, ch)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room"})
		return
	}
	if !flags.IsRoom || flags.CreatorID != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the room creator"})
		return
	}

	locked := !flags.IsLocked
	if err := h.Store.SetRoomLocked(ctx, ch, locked); err != nil {
		log.Error().Err(err).Str("module", "rest.rooms").Str("channel", string(ch)).Msg("toggle lock failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.Gateway.BroadcastAll(domain.RoomLockToggledEvent{
		Type: domain.EventRoomLockToggle, ChannelID: ch, IsLocked: locked,
	}, 0)
	c.JSON(http.StatusOK, gin.H{"isLocked": locked})
}

func (h *RoomHandlers) AcceptKnock(c *gin.Context) {
	ch := domain.ChannelID(c.Param("id"))
	target := domain.UserID(c.Param("userId"))
	ctx := c.Request.Context()

	flags, err := h.Store.ChannelFlags(ctx, ch)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room"})
		return
	}
	if flags.CreatorID != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the room creator"})
		return
	}

	h.Gateway.SendToUser(target, domain.KnockAcceptedEvent{
		Type: domain.EventKnockAccepted, ChannelID: ch,
	})
	h.Gateway.SendToUser(target, domain.RoomInviteEvent{
		Type: domain.EventRoomInvite, ChannelID: ch, UserID: target,
	})
	c.Status(http.StatusNoContent)
}

func (h *RoomHandlers) ForceMove(c *gin.Context) {
	ch := domain.ChannelID(c.Param("id"))
	var req struct {
		UserID domain.UserID `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
		return
	}

	flags, err := h.Store.ChannelFlags(c.Request.Context(), ch)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room"})
		return
	}
	if flags.CreatorID != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the room creator"})
		return
	}

	h.Gateway.SendToUser(req.UserID, domain.ForceMoveEvent{
		Type: domain.EventForceMove, ChannelID: ch,
	})
	c.Status(http.StatusNoContent)
}

func (h *RoomHandlers) EnqueueTrack(c *gin.Context) {
	sessionID := c.Param("id")
	var req struct {
		TrackURI string `json:"trackUri" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing trackUri"})
		return
	}

	queue, err := h.Store.EnqueueTrack(c.Request.Context(), sessionID, req.TrackURI)
	if err != nil {
		log.Error().Err(err).Str("module", "rest.rooms").Str("session", sessionID).Msg("enqueue track failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}

	h.Gateway.BroadcastAll(domain.QueueUpdateEvent{
		Type: domain.EventQueueUpdate, SessionID: sessionID, Queue: queue,
	}, 0)
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

func (h *RoomHandlers) EndSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.Store.EndSession(c.Request.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("module", "rest.rooms").Str("session", sessionID).Msg("end session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "end failed"})
		return
	}

	h.Gateway.BroadcastAll(domain.SessionEndedEvent{
		Type: domain.EventSessionEnded, SessionID: sessionID,
	}, 0)
	c.Status(http.StatusNoContent)
}
