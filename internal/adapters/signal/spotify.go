package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

func (ctl *Controller) handlePlaybackControl(ctx context.Context, cl *client, data []byte) {
	var p struct {
		SessionID  string `json:"sessionId"`
		Action     string `json:"action"`
		PositionMS int64  `json:"positionMs"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		return
	}

	sess, err := ctl.store.ListeningSession(ctx, p.SessionID)
	if err != nil {
		// Unknown session: tolerated client race.
		log.Debug().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("session lookup failed")
		return
	}

	switch p.Action {
	case "play":
		if err := ctl.store.SetSessionPlaying(ctx, p.SessionID, true); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("play failed")
			return
		}
		sess.Playing = true
	case "pause":
		if err := ctl.store.SetSessionPlaying(ctx, p.SessionID, false); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("pause failed")
			return
		}
		sess.Playing = false
	case "seek":
		if err := ctl.store.SeekSession(ctx, p.SessionID, p.PositionMS); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("seek failed")
			return
		}
		sess.PositionMS = p.PositionMS
	case "skip":
		removed, next, err := ctl.store.SkipSession(ctx, p.SessionID)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("skip failed")
			return
		}
		sess = next
		ctl.gw.BroadcastAll(domain.QueueRemoveEvent{
			Type: domain.EventQueueRemove, SessionID: p.SessionID, TrackURI: removed,
		}, cl.id)
	default:
		return
	}

	ctl.gw.BroadcastAll(domain.PlaybackSyncEvent{
		Type:       domain.EventPlaybackSync,
		SessionID:  sess.ID,
		Action:     p.Action,
		TrackURI:   sess.TrackURI,
		PositionMS: sess.PositionMS,
		Playing:    sess.Playing,
	}, cl.id)
}
