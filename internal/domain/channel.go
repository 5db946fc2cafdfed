package domain

type (
	ChannelID string
	ServerID  string
	MessageID string
)

// MaxMessageLen bounds send_message content; longer frames are dropped.
const MaxMessageLen = 4000

// ChannelFlags mirrors the channel row columns the gateway cares about.
type ChannelFlags struct {
	IsRoom       bool
	IsPersistent bool
	IsLocked     bool
	CreatorID    UserID
}

// VoiceParticipant is one user's membership in a voice channel.
type VoiceParticipant struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	DrinkCount  int    `json:"drinkCount"`
}
