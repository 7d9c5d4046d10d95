package intent

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/Ananth-NQI/communitybot/internal/profile"
)

type waitKind uint8

const (
	waitNone waitKind = iota
	waitReady
	waitUpdating
)

const updatingPrefix = "updating_"

// WaitState is what the conversation expects the next message to answer.
// The zero value is WaitNone. A WaitState can only name a field that exists:
// it is built with Updating or parsed with ParseWaitState, and neither lets
// an unknown field through.
type WaitState struct {
	kind  waitKind
	field profile.Field
}

var (
	// WaitNone means no conversation has started or it was reset
	WaitNone = WaitState{}
	// WaitReady means the member has been greeted and nothing specific is pending
	WaitReady = WaitState{kind: waitReady}
)

// Updating returns the state that expects a value for field. An invalid
// field yields WaitNone.
func Updating(field profile.Field) WaitState {
	if !field.Valid() {
		return WaitNone
	}
	return WaitState{kind: waitUpdating, field: field}
}

// ParseWaitState parses the persisted tag: none, ready or updating_<field>.
// The empty string is treated as none.
func ParseWaitState(s string) (WaitState, error) {
	switch s {
	case "", "none":
		return WaitNone, nil
	case "ready":
		return WaitReady, nil
	}

	if name, ok := strings.CutPrefix(s, updatingPrefix); ok {
		if f := profile.Field(name); f.Valid() {
			return Updating(f), nil
		}
	}
	return WaitNone, fmt.Errorf("unknown wait state %q", s)
}

// UpdatingField returns the field being collected, if any
func (w WaitState) UpdatingField() (profile.Field, bool) {
	if w.kind != waitUpdating {
		return "", false
	}
	return w.field, true
}

// Free reports whether no field answer is pending
func (w WaitState) Free() bool {
	return w.kind != waitUpdating
}

func (w WaitState) String() string {
	switch w.kind {
	case waitReady:
		return "ready"
	case waitUpdating:
		return updatingPrefix + string(w.field)
	}
	return "none"
}

func (w WaitState) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WaitState) UnmarshalText(text []byte) error {
	parsed, err := ParseWaitState(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Value implements driver.Valuer so gorm stores the tag as text
func (w WaitState) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan implements sql.Scanner
func (w *WaitState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = WaitNone
		return nil
	case string:
		return w.UnmarshalText([]byte(v))
	case []byte:
		return w.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into WaitState", src)
}

// ProfileSnapshot is the part of a member's profile the classifier gates on
type ProfileSnapshot struct {
	EnhancedProfileCompleted bool `json:"enhanced_profile_completed"`
}

// ConversationContext is everything the classifier reads about a conversation
type ConversationContext struct {
	WaitingFor    WaitState       `json:"waiting_for"`
	Authenticated bool            `json:"authenticated"`
	Profile       ProfileSnapshot `json:"profile"`
}

// DefaultContext is used whenever no live session exists: nothing pending,
// not authenticated.
func DefaultContext() ConversationContext {
	return ConversationContext{WaitingFor: WaitNone}
}
