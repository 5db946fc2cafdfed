package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// dispatch sniffs the type discriminator and routes to the matching
// handler. Malformed or unknown frames are ignored and the connection
// stays open.
func (ctl *Controller) dispatch(ctx context.Context, cl *client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("malformed frame")
		return
	}

	switch env.Type {
	case "join_channel":
		ctl.handleJoinChannel(cl, data)
	case "leave_channel":
		ctl.handleLeaveChannel(cl, data)
	case "join_dm":
		ctl.handleJoinDM(cl, data)
	case "leave_dm":
		ctl.handleLeaveDM(cl, data)
	case "send_message":
		ctl.handleSendMessage(ctx, cl, data)
	case "edit_message":
		ctl.handleEditMessage(ctx, cl, data)
	case "delete_message":
		ctl.handleDeleteMessage(ctx, cl, data)
	case "typing_start":
		ctl.handleTyping(cl, data, true)
	case "typing_stop":
		ctl.handleTyping(cl, data, false)
	case "add_reaction":
		ctl.handleAddReaction(ctx, cl, data)
	case "remove_reaction":
		ctl.handleRemoveReaction(ctx, cl, data)
	case "send_dm":
		ctl.handleSendDM(ctx, cl, data)
	case "voice_join":
		ctl.handleVoiceJoin(ctx, cl, data)
	case "voice_leave":
		ctl.handleVoiceLeave(ctx, cl)
	case "drink_update":
		ctl.handleDrinkUpdate(cl, data)
	case "update_activity":
		ctl.handleUpdateActivity(cl, data)
	case "update_status":
		ctl.handleUpdateStatus(ctx, cl, data)
	case "play_sound":
		ctl.handlePlaySound(ctx, cl, data)
	case "share_server_key":
		ctl.handleShareServerKey(ctx, cl, data)
	case "request_server_key":
		ctl.handleRequestServerKey(cl, data)
	case "spotify_playback_control":
		ctl.handlePlaybackControl(ctx, cl, data)
	case "room_knock":
		ctl.handleRoomKnock(ctx, cl, data)
	case "ping":
		// Keepalive happens at the protocol level; nothing to do.
	default:
		log.Debug().Str("module", "signal").Str("type", env.Type).Msg("unknown frame type")
	}
}
