// Package intent decides what an inbound WhatsApp message means given the
// conversation it arrives in. Classification is pure and total: every
// message maps to exactly one Intent and nothing here touches storage.
package intent

import "github.com/Ananth-NQI/communitybot/internal/profile"

// Type is the kind of action a message asks for
type Type string

const (
	TypeProfileInput Type = "profile_input"
	TypeSearch       Type = "search"
	TypeCommand      Type = "command"
	TypeUnknown      Type = "unknown"
)

// Command is a bot command recognized in free state
type Command string

const (
	CommandHelp    Command = "help"
	CommandProfile Command = "profile"
	CommandUpdate  Command = "update"
	CommandCancel  Command = "cancel"
)

// requiresAuth reports whether a command acts on the member's own profile
func (c Command) requiresAuth() bool {
	return c == CommandProfile || c == CommandUpdate
}

// SearchKind is the shape of a search query, recorded with the query log
type SearchKind string

const (
	SearchText      SearchKind = "text"
	SearchLinkedIn  SearchKind = "linkedin"
	SearchInstagram SearchKind = "instagram"
)

// Block reasons
const (
	ReasonNotAuthenticated  = "not authenticated"
	ReasonProfileIncomplete = "profile incomplete"
)

// Intent is the classified meaning of one message.
//
// Field and Value are set only for TypeProfileInput. Command is set only for
// TypeCommand, and Target only for CommandUpdate (empty when no field was
// named). Query and SearchKind are
// set only for TypeSearch. Blocked intents keep their type so the caller
// knows what was refused.
type Intent struct {
	Type        Type          `json:"type"`
	Field       profile.Field `json:"field,omitempty"`
	Value       string        `json:"value,omitempty"`
	Command     Command       `json:"command,omitempty"`
	Target      profile.Field `json:"target,omitempty"`
	Query       string        `json:"query,omitempty"`
	SearchKind  SearchKind    `json:"search_kind,omitempty"`
	Blocked     bool          `json:"blocked,omitempty"`
	BlockReason string        `json:"block_reason,omitempty"`
}
