package domain

import "time"

// Outbound event type discriminators. Every frame sent to a client is one
// of these, as a single JSON object with a "type" field. REST handlers that
// mutate socket-visible state reuse the same vocabulary so clients cannot
// tell socket- and REST-origin mutations apart.
const (
	EventMessage       = "message"
	EventMessageEdit   = "message_edit"
	EventMessageDelete = "message_delete"
	EventTyping        = "typing"
	EventPresence      = "presence"
	EventVoiceState    = "voice_state"
	EventReactionAdd   = "reaction_add"
	EventReactionRem   = "reaction_remove"
	EventDMMessage     = "dm_message"
	EventActivity      = "activity_update"

	EventQueueUpdate  = "spotify_queue_update"
	EventPlaybackSync = "spotify_playback_sync"
	EventQueueRemove  = "spotify_queue_remove"
	EventSessionEnded = "spotify_session_ended"

	EventSoundboardPlay = "soundboard_play"

	EventRoomCreated    = "room_created"
	EventRoomDeleted    = "room_deleted"
	EventRoomLockToggle = "room_lock_toggled"
	EventRoomKnock      = "room_knock"
	EventKnockAccepted  = "room_knock_accepted"
	EventRoomInvite     = "room_invite"
	EventForceMove      = "room_force_move"

	EventServerKeyShared    = "server_key_shared"
	EventServerKeyRequested = "server_key_requested"

	EventError = "error"
)

type MessageEvent struct {
	Type          string    `json:"type"`
	ChannelID     ChannelID `json:"channelId"`
	MessageID     MessageID `json:"messageId"`
	UserID        UserID    `json:"userId"`
	DisplayName   string    `json:"displayName"`
	Content       string    `json:"content"`
	AttachmentIDs []string  `json:"attachmentIds"`
	CreatedAt     time.Time `json:"createdAt"`
}

type MessageEditEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	MessageID MessageID `json:"messageId"`
	Content   string    `json:"content"`
	EditedAt  time.Time `json:"editedAt"`
}

type MessageDeleteEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	MessageID MessageID `json:"messageId"`
}

type TypingEvent struct {
	Type        string    `json:"type"`
	ChannelID   ChannelID `json:"channelId"`
	UserID      UserID    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Typing      bool      `json:"typing"`
}

type PresenceEvent struct {
	Type   string `json:"type"`
	UserID UserID `json:"userId"`
	Status Status `json:"status"`
}

type VoiceStateEvent struct {
	Type         string             `json:"type"`
	ChannelID    ChannelID          `json:"channelId"`
	Participants []VoiceParticipant `json:"participants"`
}

type ReactionEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	MessageID MessageID `json:"messageId"`
	UserID    UserID    `json:"userId"`
	Emoji     string    `json:"emoji"`
}

type DMMessageEvent struct {
	Type        string    `json:"type"`
	DMChannelID ChannelID `json:"dmChannelId"`
	MessageID   MessageID `json:"messageId"`
	UserID      UserID    `json:"userId"`
	Ciphertext  string    `json:"ciphertext"`
	MLSEpoch    int64     `json:"mlsEpoch"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ActivityEvent struct {
	Type     string `json:"type"`
	UserID   UserID `json:"userId"`
	Activity string `json:"activity"`
}

type QueueUpdateEvent struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	Queue     []string `json:"queue"`
}

type PlaybackSyncEvent struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	Action     string `json:"action"`
	TrackURI   string `json:"trackUri"`
	PositionMS int64  `json:"positionMs"`
	Playing    bool   `json:"playing"`
}

type QueueRemoveEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	TrackURI  string `json:"trackUri"`
}

type SessionEndedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type SoundboardPlayEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	SoundID   string    `json:"soundId"`
	UserID    UserID    `json:"userId"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
}

type RoomCreatedEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	Name      string    `json:"name"`
	CreatorID UserID    `json:"creatorId"`
	Persisted bool      `json:"persistent"`
}

type RoomDeletedEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
}

type RoomLockToggledEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	IsLocked  bool      `json:"isLocked"`
}

type RoomKnockEvent struct {
	Type        string    `json:"type"`
	ChannelID   ChannelID `json:"channelId"`
	UserID      UserID    `json:"userId"`
	DisplayName string    `json:"displayName"`
}

type KnockAcceptedEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
}

type RoomInviteEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
	UserID    UserID    `json:"userId"`
}

type ForceMoveEvent struct {
	Type      string    `json:"type"`
	ChannelID ChannelID `json:"channelId"`
}

type ServerKeySharedEvent struct {
	Type         string   `json:"type"`
	ServerID     ServerID `json:"serverId"`
	UserID       UserID   `json:"userId"`
	EncryptedKey string   `json:"encryptedKey"`
}

type ServerKeyRequestedEvent struct {
	Type     string   `json:"type"`
	ServerID ServerID `json:"serverId"`
	UserID   UserID   `json:"userId"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
