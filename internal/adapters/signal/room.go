package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// handleRoomKnock routes a knock on a locked room to its creator and the
// owning server's admins/owner, without duplicate delivery and never back
// to the knocker.
func (ctl *Controller) handleRoomKnock(ctx context.Context, cl *client, data []byte) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	if !ctl.knocks.Allow(cl.userID) {
		return
	}

	flags, err := ctl.store.ChannelFlags(ctx, p.ChannelID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", string(p.ChannelID)).Msg("channel flags lookup failed")
		return
	}
	if !flags.IsLocked {
		return
	}
	recipients, err := ctl.store.KnockRecipients(ctx, p.ChannelID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", string(p.ChannelID)).Msg("knock recipients lookup failed")
		return
	}

	event := domain.RoomKnockEvent{
		Type:        domain.EventRoomKnock,
		ChannelID:   p.ChannelID,
		UserID:      cl.userID,
		DisplayName: cl.displayName,
	}
	seen := make(map[domain.UserID]struct{}, len(recipients))
	for _, uid := range recipients {
		if uid == cl.userID {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		ctl.gw.SendToUser(uid, event)
	}
}
