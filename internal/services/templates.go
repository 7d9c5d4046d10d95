package services

import (
	"fmt"
	"strings"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

func helpMessage() string {
	return `👋 *Welcome to the community directory!*

Send a message describing who you're looking for, for example:
- "architects in Kochi"
- a LinkedIn profile link
- an Instagram @handle

*Commands:*
- *profile* - See your profile
- *update linkedin* - Set your LinkedIn profile
- *update instagram* - Set your Instagram handle
- *update address* - Set your address
- *cancel* - Stop the current update

You can also write "linkedin: <link>" to update a field directly.`
}

func unknownMessage() string {
	return "🤔 Sorry, I didn't understand that.\n\nReply *help* to see what I can do."
}

func blockedMessage(in intent.Intent) string {
	switch in.BlockReason {
	case intent.ReasonNotAuthenticated:
		return "🔒 This number isn't linked to a verified community member yet.\n\nPlease contact a community admin to get verified."
	case intent.ReasonProfileIncomplete:
		return `📝 Please complete your profile before searching the directory.

Reply *update linkedin* and *update address* to add the missing details.`
	}
	return unknownMessage()
}

func profileMessage(m *models.Member) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *%s*\n", m.Name)
	if m.Profession != "" {
		fmt.Fprintf(&b, "💼 %s\n", m.Profession)
	}
	b.WriteString("\n")
	for _, f := range profile.AllFields() {
		value := m.FieldValue(f)
		if value == "" {
			value = "not set"
		}
		fmt.Fprintf(&b, "*%s:* %s\n", f.Label(), value)
	}
	if !m.EnhancedProfileCompleted() {
		b.WriteString("\n⚠️ Add your LinkedIn and address to unlock directory search.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func fieldPrompt(f profile.Field, current string) string {
	var prompt string
	switch f {
	case profile.FieldLinkedIn:
		prompt = "🔗 Send your LinkedIn profile link (e.g. https://www.linkedin.com/in/yourname)"
	case profile.FieldInstagram:
		prompt = "📸 Send your Instagram handle (e.g. @yourname)"
	case profile.FieldAddress:
		prompt = "📍 Send your address"
	}
	if current != "" {
		prompt += fmt.Sprintf("\n\nCurrent: %s", current)
	}
	return prompt + "\n\nReply *cancel* to stop."
}

func updateChoiceMessage() string {
	var b strings.Builder
	b.WriteString("✏️ Which detail do you want to update?\n")
	for _, f := range profile.AllFields() {
		fmt.Fprintf(&b, "\n- *update %s*", f.String())
	}
	return b.String()
}

func fieldSavedMessage(f profile.Field, value string, completedNow bool) string {
	msg := fmt.Sprintf("✅ %s saved: %s", f.Label(), value)
	if value == "" {
		msg = fmt.Sprintf("✅ %s removed", f.Label())
	}
	if completedNow {
		msg += "\n\n🎉 Your profile is complete. You can now search the directory!"
	}
	return msg
}

func invalidFieldMessage(f profile.Field, message string) string {
	return fmt.Sprintf("❌ %s\n\nPlease send your %s again, or reply *cancel*.", message, f.Label())
}

func cancelledMessage() string {
	return "👍 Cancelled. Reply *help* to see what I can do."
}

func searchResultsMessage(query string, members []*models.Member) string {
	if len(members) == 0 {
		return fmt.Sprintf("🔍 No members found for \"%s\".\n\nTry a profession, company or city.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *%d member(s) found:*\n", len(members))
	for i, m := range members {
		fmt.Fprintf(&b, "\n%d. *%s*", i+1, m.Name)
		if m.Profession != "" {
			fmt.Fprintf(&b, " - %s", m.Profession)
		}
		if m.Company != "" {
			fmt.Fprintf(&b, " at %s", m.Company)
		}
		if m.Address != "" {
			fmt.Fprintf(&b, "\n   📍 %s", m.Address)
		}
		if m.LinkedIn != "" {
			fmt.Fprintf(&b, "\n   🔗 %s", m.LinkedIn)
		}
		if m.Instagram != "" {
			fmt.Fprintf(&b, "\n   📸 @%s", m.Instagram)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func errorMessage() string {
	return "❌ Sorry, something went wrong. Please try again."
}
