package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/communitybot/internal/intent"
)

// Role of a message in the session history
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Session is the persisted conversation for one WhatsApp number: its
// ConversationContext plus the ordered message history
type Session struct {
	gorm.Model

	SessionID      string `json:"session_id" gorm:"uniqueIndex;not null"`
	UserID         string `json:"user_id" gorm:"index"` // MemberID, empty for unknown senders
	WhatsAppNumber string `json:"whatsapp_number" gorm:"index;not null"`

	WaitingFor               intent.WaitState `json:"waiting_for" gorm:"type:varchar(40)"`
	Authenticated            bool             `json:"authenticated"`
	EnhancedProfileCompleted bool             `json:"enhanced_profile_completed"`

	Messages     []SessionMessage `json:"messages" gorm:"foreignKey:SessionID;references:SessionID"`
	LastActivity time.Time        `json:"last_activity"`
}

// SessionMessage is one entry of a session's append-only history
type SessionMessage struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(10)"`
	Content   string    `json:"content" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionIDFor is the session key of a WhatsApp conversation
func SessionIDFor(phone string) string {
	return "wa:" + NormalizePhone(phone)
}

// Context returns the conversation context held by the session
func (s *Session) Context() intent.ConversationContext {
	return intent.ConversationContext{
		WaitingFor:    s.WaitingFor,
		Authenticated: s.Authenticated,
		Profile: intent.ProfileSnapshot{
			EnhancedProfileCompleted: s.EnhancedProfileCompleted,
		},
	}
}

// SetContext overwrites the session's conversation context
func (s *Session) SetContext(cc intent.ConversationContext) {
	s.WaitingFor = cc.WaitingFor
	s.Authenticated = cc.Authenticated
	s.EnhancedProfileCompleted = cc.Profile.EnhancedProfileCompleted
}
