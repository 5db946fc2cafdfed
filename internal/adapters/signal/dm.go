package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
	"github.com/NoahSmiley/fluxchat/internal/storage"
)

func (ctl *Controller) handleSendDM(ctx context.Context, cl *client, data []byte) {
	var p struct {
		DMChannelID domain.ChannelID `json:"dmChannelId"`
		Ciphertext  string           `json:"ciphertext"`
		MLSEpoch    int64            `json:"mlsEpoch"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.DMChannelID == "" || p.Ciphertext == "" {
		return
	}

	participants, err := ctl.store.DMParticipants(ctx, p.DMChannelID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("dm", string(p.DMChannelID)).Msg("dm participants lookup failed")
		return
	}
	var other domain.UserID
	member := false
	for _, uid := range participants {
		if uid == cl.userID {
			member = true
		} else {
			other = uid
		}
	}
	if !member {
		return
	}

	row := storage.DMMessageRow{
		ID:          domain.MessageID(uuid.NewString()),
		DMChannelID: p.DMChannelID,
		UserID:      cl.userID,
		Ciphertext:  p.Ciphertext,
		MLSEpoch:    p.MLSEpoch,
		CreatedAt:   time.Now().UTC(),
	}
	if err := ctl.store.SaveDMMessage(ctx, row); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("dm", string(p.DMChannelID)).Msg("save dm message failed")
		return
	}

	event := domain.DMMessageEvent{
		Type:        domain.EventDMMessage,
		DMChannelID: row.DMChannelID,
		MessageID:   row.ID,
		UserID:      row.UserID,
		Ciphertext:  row.Ciphertext,
		MLSEpoch:    row.MLSEpoch,
		CreatedAt:   row.CreatedAt,
	}
	ctl.gw.BroadcastDM(p.DMChannelID, event)
	// Reliability fallback: the other participant may not have the DM
	// subscribed yet on some of their connections.
	if other != "" {
		ctl.gw.SendToUser(other, event)
	}
}
