// Package domain contains entity types and the wire event vocabulary,
// no transport or lifecycle logic.
package domain

import "errors"

// MaxDisplayNameLen bounds user and room names, in bytes.
const MaxDisplayNameLen = 36

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
)

type UserID string

// Status is the self-selected connectivity status. Presence shown to other
// users is derived from it: invisible is masked to offline for everyone
// except the user themself.
type Status string

const (
	StatusOnline    Status = "online"
	StatusIdle      Status = "idle"
	StatusDND       Status = "dnd"
	StatusInvisible Status = "invisible"

	// StatusOffline never appears in the registry; it is only emitted on
	// the wire, as a mask for invisible and as the final presence at
	// teardown.
	StatusOffline Status = "offline"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible:
		return Status(s), true
	}
	return "", false
}

// Masked returns the status as observed by other users.
func (s Status) Masked() Status {
	if s == StatusInvisible {
		return StatusOffline
	}
	return s
}

func ValidDisplayName(name string) error {
	if len(name) == 0 {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	return nil
}
