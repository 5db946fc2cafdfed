// Package storage defines the gateway's external collaborators: the
// relational store behind messages, reactions, channels, keys and
// listening sessions, and the opaque session-token store used at upgrade.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// ErrNotFound is returned for lookups with no matching row. Handlers treat
// it the same as an I/O failure: log, no-op, proceed.
var ErrNotFound = errors.New("storage: not found")

type MessageRow struct {
	ID            domain.MessageID
	ChannelID     domain.ChannelID
	UserID        domain.UserID
	DisplayName   string
	Content       string
	AttachmentIDs []string
	CreatedAt     time.Time
	EditedAt      *time.Time
}

type DMMessageRow struct {
	ID          domain.MessageID
	DMChannelID domain.ChannelID
	UserID      domain.UserID
	Ciphertext  string
	MLSEpoch    int64
	CreatedAt   time.Time
}

type SoundRow struct {
	ID     string
	Name   string
	Source string
}

type SessionRow struct {
	ID         string
	ChannelID  domain.ChannelID
	TrackURI   string
	PositionMS int64
	Playing    bool
}

// Store is the DB collaborator contract. Implementations issue
// parameterized statements only; callers decide what an error means.
type Store interface {
	// Messages. Deletion removes the search index entry before the row.
	SaveMessage(ctx context.Context, m MessageRow) error
	IndexMessage(ctx context.Context, id domain.MessageID, content string) error
	Message(ctx context.Context, id domain.MessageID) (MessageRow, error)
	UpdateMessage(ctx context.Context, id domain.MessageID, content string, editedAt time.Time) error
	ReindexMessage(ctx context.Context, id domain.MessageID, content string) error
	DeleteMessageIndex(ctx context.Context, id domain.MessageID) error
	DeleteMessage(ctx context.Context, id domain.MessageID) error

	// LinkAttachments attaches pre-uploaded rows to a message, but only
	// rows owned by owner that are not yet linked anywhere.
	LinkAttachments(ctx context.Context, id domain.MessageID, owner domain.UserID, attachmentIDs []string) error

	// AddReaction reports false when the (message, user, emoji) row
	// already exists.
	AddReaction(ctx context.Context, id domain.MessageID, user domain.UserID, emoji string) (bool, error)
	RemoveReaction(ctx context.Context, id domain.MessageID, user domain.UserID, emoji string) error

	SaveDMMessage(ctx context.Context, m DMMessageRow) error
	DMParticipants(ctx context.Context, dm domain.ChannelID) ([]domain.UserID, error)

	UserStatus(ctx context.Context, user domain.UserID) (domain.Status, error)
	SaveUserStatus(ctx context.Context, user domain.UserID, status domain.Status) error

	ChannelFlags(ctx context.Context, ch domain.ChannelID) (domain.ChannelFlags, error)
	DeleteChannel(ctx context.Context, ch domain.ChannelID) error
	CreateRoom(ctx context.Context, ch domain.ChannelID, name string, creator domain.UserID, persistent bool) error
	SetRoomLocked(ctx context.Context, ch domain.ChannelID, locked bool) error

	// KnockRecipients returns the room creator plus every admin/owner of
	// the owning server, deduplicated.
	KnockRecipients(ctx context.Context, ch domain.ChannelID) ([]domain.UserID, error)

	UpsertServerKey(ctx context.Context, server domain.ServerID, user domain.UserID, encryptedKey string) error

	Sound(ctx context.Context, soundID string) (SoundRow, error)

	ListeningSession(ctx context.Context, sessionID string) (SessionRow, error)
	SetSessionPlaying(ctx context.Context, sessionID string, playing bool) error
	SeekSession(ctx context.Context, sessionID string, positionMS int64) error
	// SkipSession advances the session to the queue head and removes that
	// track from the queue, returning the removed track and the new state.
	SkipSession(ctx context.Context, sessionID string) (removed string, next SessionRow, err error)
	EnqueueTrack(ctx context.Context, sessionID, trackURI string) ([]string, error)
	EndSession(ctx context.Context, sessionID string) error
	// PauseChannelSession pauses whatever session is active on the voice
	// channel, if any.
	PauseChannelSession(ctx context.Context, ch domain.ChannelID) error
}
