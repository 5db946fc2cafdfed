package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func (ctl *Controller) handleShareServerKey(ctx context.Context, cl *client, data []byte) {
	var p struct {
		ServerID     domain.ServerID `json:"serverId"`
		UserID       domain.UserID   `json:"userId"`
		EncryptedKey string          `json:"encryptedKey"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" || p.UserID == "" || p.EncryptedKey == "" {
		return
	}

	if err := ctl.store.UpsertServerKey(ctx, p.ServerID, p.UserID, p.EncryptedKey); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("server", string(p.ServerID)).Msg("upsert server key failed")
		return
	}
	ctl.gw.SendToUser(p.UserID, domain.ServerKeySharedEvent{
		Type:         domain.EventServerKeyShared,
		ServerID:     p.ServerID,
		UserID:       cl.userID,
		EncryptedKey: p.EncryptedKey,
	})
}

func (ctl *Controller) handleRequestServerKey(cl *client, data []byte) {
	var p struct {
		ServerID domain.ServerID `json:"serverId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" {
		return
	}
	ctl.gw.BroadcastAll(domain.ServerKeyRequestedEvent{
		Type:     domain.EventServerKeyRequested,
		ServerID: p.ServerID,
		UserID:   cl.userID,
	}, cl.id)
}
