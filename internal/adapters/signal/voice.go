package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func (ctl *Controller) broadcastVoiceState(ch domain.ChannelID) {
	ctl.gw.BroadcastAll(domain.VoiceStateEvent{
		Type:         domain.EventVoiceState,
		ChannelID:    ch,
		Participants: ctl.gw.Voice.Participants(ch),
	}, 0)
}

func (ctl *Controller) handleVoiceJoin(ctx context.Context, cl *client, data []byte) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}

	// Cancel first: a rejoin must beat a pending cleanup regardless of
	// how the leave and join interleave.
	ctl.gw.Janitor.Cancel(p.ChannelID)

	prev, emptied, ok := ctl.gw.JoinVoice(cl.id, p.ChannelID)
	if !ok {
		return
	}
	if prev != "" && prev != p.ChannelID {
		ctl.broadcastVoiceState(prev)
		if emptied {
			ctl.onVoiceChannelEmptied(ctx, prev)
		}
	}
	ctl.broadcastVoiceState(p.ChannelID)
}

func (ctl *Controller) handleVoiceLeave(ctx context.Context, cl *client) {
	ch, empty, ok := ctl.gw.LeaveVoice(cl.id)
	if !ok {
		return
	}
	ctl.broadcastVoiceState(ch)
	if empty {
		ctl.onVoiceChannelEmptied(ctx, ch)
	}
}

func (ctl *Controller) handleDrinkUpdate(cl *client, data []byte) {
	var p struct {
		ChannelID  domain.ChannelID `json:"channelId"`
		DrinkCount int              `json:"drinkCount"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	if !ctl.gw.Voice.UpdateDrinkCount(cl.userID, p.ChannelID, p.DrinkCount) {
		return
	}
	ctl.broadcastVoiceState(p.ChannelID)
}

func (ctl *Controller) handlePlaySound(ctx context.Context, cl *client, data []byte) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
		SoundID   string           `json:"soundId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" || p.SoundID == "" {
		return
	}

	current, ok := ctl.gw.Registry.VoiceChannelOf(cl.id)
	if !ok || current != p.ChannelID {
		return
	}
	sound, err := ctl.store.Sound(ctx, p.SoundID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sound", p.SoundID).Msg("sound lookup failed")
		return
	}

	ctl.gw.BroadcastAll(domain.SoundboardPlayEvent{
		Type:      domain.EventSoundboardPlay,
		ChannelID: p.ChannelID,
		SoundID:   sound.ID,
		UserID:    cl.userID,
		Name:      sound.Name,
		Source:    sound.Source,
	}, 0)
}
