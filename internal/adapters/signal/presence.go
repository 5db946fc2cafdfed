package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func (ctl *Controller) handleUpdateActivity(cl *client, data []byte) {
	var p struct {
		Activity string `json:"activity"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.gw.Registry.SetActivity(cl.id, p.Activity)
	ctl.gw.BroadcastAll(domain.ActivityEvent{
		Type: domain.EventActivity, UserID: cl.userID, Activity: p.Activity,
	}, 0)
}

func (ctl *Controller) handleUpdateStatus(ctx context.Context, cl *client, data []byte) {
	var p struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	status, ok := domain.ParseStatus(p.Status)
	if !ok {
		return
	}

	ctl.gw.Registry.SetStatus(cl.id, status)
	if err := ctl.store.SaveUserStatus(ctx, cl.userID, status); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("user", string(cl.userID)).Msg("save status preference failed")
	}

	// Everyone else sees invisible as offline; the user always gets their
	// true status back.
	ctl.gw.BroadcastAll(domain.PresenceEvent{
		Type: domain.EventPresence, UserID: cl.userID, Status: status.Masked(),
	}, cl.id)
	ctl.gw.SendTo(cl.id, domain.PresenceEvent{
		Type: domain.EventPresence, UserID: cl.userID, Status: status,
	})
}
