package signal

import (
	"encoding/json"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

type channelPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

type dmPayload struct {
	DMChannelID domain.ChannelID `json:"dmChannelId"`
}

func (ctl *Controller) handleJoinChannel(cl *client, data []byte) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	ctl.gw.Registry.SubscribeChannel(cl.id, p.ChannelID)
}

func (ctl *Controller) handleLeaveChannel(cl *client, data []byte) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" {
		return
	}
	ctl.gw.Registry.UnsubscribeChannel(cl.id, p.ChannelID)
}

func (ctl *Controller) handleJoinDM(cl *client, data []byte) {
	var p dmPayload
	if err := json.Unmarshal(data, &p); err != nil || p.DMChannelID == "" {
		return
	}
	ctl.gw.Registry.SubscribeDM(cl.id, p.DMChannelID)
}

func (ctl *Controller) handleLeaveDM(cl *client, data []byte) {
	var p dmPayload
	if err := json.Unmarshal(data, &p); err != nil || p.DMChannelID == "" {
		return
	}
	ctl.gw.Registry.UnsubscribeDM(cl.id, p.DMChannelID)
}
