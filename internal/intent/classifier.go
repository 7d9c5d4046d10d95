package intent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Ananth-NQI/communitybot/internal/profile"
)

var (
	helpWords    = map[string]bool{"help": true, "menu": true, "hi": true, "hello": true, "hey": true, "start": true}
	profileWords = map[string]bool{"profile": true, "me": true, "myprofile": true}
	cancelWords  = map[string]bool{"cancel": true, "stop": true}
	updateVerbs  = map[string]bool{"update": true, "edit": true, "change": true, "set": true}
)

// "linkedin: x", "my instagram is @x", "address = ..."
var fieldAssignment = regexp.MustCompile(`(?is)^(?:my\s+)?(linked-?in|instagram|insta|ig|address|location|city)\s*(?::|=|\s+is\s+)\s*(.+)$`)

// Classify maps a message to its Intent.
//
// A pending wait-state always wins: while a field is being collected every
// non-empty message is the answer for that field, whatever it looks like,
// and the field's validator judges it later. Only in free state are commands,
// explicit "field: value" updates and searches told apart by shape, with
// search as the default. Gating is applied last and marks the intent blocked
// without changing its type.
func Classify(message string, cc ConversationContext) Intent {
	if message == "" {
		return Intent{Type: TypeUnknown}
	}

	text := strings.TrimSpace(message)
	if field, ok := cc.WaitingFor.UpdatingField(); ok {
		return gate(Intent{Type: TypeProfileInput, Field: field, Value: text}, cc)
	}

	if text == "" {
		return Intent{Type: TypeUnknown}
	}
	return gate(classifyFree(text), cc)
}

func classifyFree(text string) Intent {
	lower := strings.ToLower(text)

	if strings.HasPrefix(lower, "/") || strings.HasPrefix(lower, "!") {
		if in, ok := parseCommand(lower[1:]); ok {
			return in
		}
		return Intent{Type: TypeUnknown}
	}

	if in, ok := parseCommand(lower); ok {
		return in
	}

	if m := fieldAssignment.FindStringSubmatch(text); m != nil {
		if field, ok := profile.ParseField(m[1]); ok {
			return Intent{Type: TypeProfileInput, Field: field, Value: strings.TrimSpace(m[2])}
		}
	}

	if !strings.ContainsFunc(text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return Intent{Type: TypeUnknown}
	}

	return Intent{Type: TypeSearch, Query: text, SearchKind: searchKind(text)}
}

func parseCommand(s string) (Intent, bool) {
	words := strings.Fields(strings.TrimRight(s, "!?.,; "))
	if len(words) == 0 {
		return Intent{}, false
	}

	if len(words) == 1 {
		switch w := words[0]; {
		case helpWords[w]:
			return Intent{Type: TypeCommand, Command: CommandHelp}, true
		case profileWords[w]:
			return Intent{Type: TypeCommand, Command: CommandProfile}, true
		case cancelWords[w]:
			return Intent{Type: TypeCommand, Command: CommandCancel}, true
		case updateVerbs[w]:
			// no field named yet: the member is asked to pick one
			return Intent{Type: TypeCommand, Command: CommandUpdate}, true
		}
		return Intent{}, false
	}

	if updateVerbs[words[0]] {
		rest := words[1:]
		if rest[0] == "my" && len(rest) > 1 {
			rest = rest[1:]
		}
		if field, ok := profile.ParseField(strings.Join(rest, " ")); ok {
			return Intent{Type: TypeCommand, Command: CommandUpdate, Target: field}, true
		}
	}
	return Intent{}, false
}

func searchKind(text string) SearchKind {
	switch {
	case profile.LooksLikeLinkedIn(text):
		return SearchLinkedIn
	case profile.LooksLikeInstagram(text):
		return SearchInstagram
	}
	return SearchText
}

// gate marks an intent blocked when the context does not meet its preconditions
func gate(in Intent, cc ConversationContext) Intent {
	switch in.Type {
	case TypeSearch:
		if !cc.Authenticated {
			return block(in, ReasonNotAuthenticated)
		}
		if !cc.Profile.EnhancedProfileCompleted {
			return block(in, ReasonProfileIncomplete)
		}
	case TypeProfileInput:
		if !cc.Authenticated {
			return block(in, ReasonNotAuthenticated)
		}
	case TypeCommand:
		if in.Command.requiresAuth() && !cc.Authenticated {
			return block(in, ReasonNotAuthenticated)
		}
	}
	return in
}

func block(in Intent, reason string) Intent {
	in.Blocked = true
	in.BlockReason = reason
	return in
}
