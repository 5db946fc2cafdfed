package signal

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

func (ctl *Controller) handleSendMessage(ctx context.Context, cl *client, data []byte) {
	var p struct {
		ChannelID     domain.ChannelID `json:"channelId"`
		Content       string           `json:"content"`
		AttachmentIDs []string         `json:"attachmentIds"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	content := strings.TrimSpace(p.Content)
	if content == "" || len(content) > domain.MaxMessageLen {
		return
	}

	row := storage.MessageRow{
		ID:            domain.MessageID(uuid.NewString()),
		ChannelID:     p.ChannelID,
		UserID:        cl.userID,
		DisplayName:   cl.displayName,
		Content:       content,
		AttachmentIDs: p.AttachmentIDs,
		CreatedAt:     time.Now().UTC(),
	}
	if err := ctl.store.SaveMessage(ctx, row); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", string(p.ChannelID)).Msg("save message failed")
		return
	}
	if err := ctl.store.IndexMessage(ctx, row.ID, content); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(row.ID)).Msg("index message failed")
	}
	if err := ctl.store.LinkAttachments(ctx, row.ID, cl.userID, p.AttachmentIDs); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(row.ID)).Msg("link attachments failed")
	}

	ctl.gw.BroadcastChannel(p.ChannelID, domain.MessageEvent{
		Type:          domain.EventMessage,
		ChannelID:     row.ChannelID,
		MessageID:     row.ID,
		UserID:        row.UserID,
		DisplayName:   row.DisplayName,
		Content:       row.Content,
		AttachmentIDs: p.AttachmentIDs,
		CreatedAt:     row.CreatedAt,
	}, 0)
}

func (ctl *Controller) handleEditMessage(ctx context.Context, cl *client, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Content   string           `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" {
		return
	}
	content := strings.TrimSpace(p.Content)
	if content == "" || len(content) > domain.MaxMessageLen {
		return
	}

	msg, err := ctl.store.Message(ctx, p.MessageID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("message lookup failed")
		return
	}
	if msg.UserID != cl.userID {
		ctl.gw.SendTo(cl.id, domain.ErrorEvent{
			Type: domain.EventError, Code: "not_message_owner", Error: "cannot edit another user's message",
		})
		return
	}

	editedAt := time.Now().UTC()
	if err := ctl.store.UpdateMessage(ctx, p.MessageID, content, editedAt); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("update message failed")
		return
	}
	if err := ctl.store.ReindexMessage(ctx, p.MessageID, content); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("reindex failed")
	}

	ctl.gw.BroadcastChannel(msg.ChannelID, domain.MessageEditEvent{
		Type:      domain.EventMessageEdit,
		ChannelID: msg.ChannelID,
		MessageID: p.MessageID,
		Content:   content,
		EditedAt:  editedAt,
	}, 0)
}

func (ctl *Controller) handleDeleteMessage(ctx context.Context, cl *client, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" {
		return
	}

	msg, err := ctl.store.Message(ctx, p.MessageID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("message lookup failed")
		return
	}
	if msg.UserID != cl.userID {
		ctl.gw.SendTo(cl.id, domain.ErrorEvent{
			Type: domain.EventError, Code: "not_message_owner", Error: "cannot delete another user's message",
		})
		return
	}

	// Index entry goes first so a crash leaves an unsearchable row, not a
	// dangling index entry.
	if err := ctl.store.DeleteMessageIndex(ctx, p.MessageID); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("delete index failed")
		return
	}
	if err := ctl.store.DeleteMessage(ctx, p.MessageID); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("delete message failed")
		return
	}

	ctl.gw.BroadcastChannel(msg.ChannelID, domain.MessageDeleteEvent{
		Type:      domain.EventMessageDelete,
		ChannelID: msg.ChannelID,
		MessageID: p.MessageID,
	}, 0)
}

func (ctl *Controller) handleTyping(cl *client, data []byte, typing bool) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	ctl.gw.BroadcastChannel(p.ChannelID, domain.TypingEvent{
		Type:        domain.EventTyping,
		ChannelID:   p.ChannelID,
		UserID:      cl.userID,
		DisplayName: cl.displayName,
		Typing:      typing,
	}, cl.id)
}

func (ctl *Controller) handleAddReaction(ctx context.Context, cl *client, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Emoji     string           `json:"emoji"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" || p.Emoji == "" {
		return
	}

	msg, err := ctl.store.Message(ctx, p.MessageID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("message lookup failed")
		return
	}
	inserted, err := ctl.store.AddReaction(ctx, p.MessageID, cl.userID, p.Emoji)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("add reaction failed")
		return
	}
	if !inserted {
		// Duplicate (message, user, emoji); tolerated client race.
		return
	}

	ctl.gw.BroadcastChannel(msg.ChannelID, domain.ReactionEvent{
		Type:      domain.EventReactionAdd,
		ChannelID: msg.ChannelID,
		MessageID: p.MessageID,
		UserID:    cl.userID,
		Emoji:     p.Emoji,
	}, 0)
}

func (ctl *Controller) handleRemoveReaction(ctx context.Context, cl *client, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Emoji     string           `json:"emoji"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" || p.Emoji == "" {
		return
	}

	msg, err := ctl.store.Message(ctx, p.MessageID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("message lookup failed")
		return
	}
	if err := ctl.store.RemoveReaction(ctx, p.MessageID, cl.userID, p.Emoji); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("message", string(p.MessageID)).Msg("remove reaction failed")
		return
	}

	ctl.gw.BroadcastChannel(msg.ChannelID, domain.ReactionEvent{
		Type:      domain.EventReactionRem,
		ChannelID: msg.ChannelID,
		MessageID: p.MessageID,
		UserID:    cl.userID,
		Emoji:     p.Emoji,
	}, 0)
}
