package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

// Member is a community member listed in the directory
type Member struct {
	gorm.Model

	MemberID   string `json:"member_id" gorm:"uniqueIndex"`
	Name       string `json:"name"`
	Phone      string `json:"phone" gorm:"uniqueIndex"` // WhatsApp number, E.164
	Profession string `json:"profession"`
	Company    string `json:"company"`

	// Editable through the bot
	LinkedIn  string `json:"linkedin" gorm:"column:linkedin;index"`
	Instagram string `json:"instagram" gorm:"column:instagram;index"`
	Address   string `json:"address" gorm:"column:address"`

	Verified bool `json:"verified" gorm:"default:false"` // identity checked by an admin
	IsActive bool `json:"is_active" gorm:"default:true"`
}

// BeforeCreate assigns a MemberID and normalizes the phone number
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	m.Normalize()
	return nil
}

// Normalize fills MemberID when missing and normalizes Phone
func (m *Member) Normalize() {
	if m.MemberID == "" {
		m.MemberID = "MEM-" + uuid.NewString()
	}
	m.Phone = NormalizePhone(m.Phone)
}

// EnhancedProfileCompleted reports whether the member has shared enough
// to appear in, and use, directory search
func (m *Member) EnhancedProfileCompleted() bool {
	return m.LinkedIn != "" && m.Address != ""
}

// Snapshot is the view of the profile the classifier gates on
func (m *Member) Snapshot() intent.ProfileSnapshot {
	return intent.ProfileSnapshot{EnhancedProfileCompleted: m.EnhancedProfileCompleted()}
}

// FieldValue returns the stored value of an editable field
func (m *Member) FieldValue(f profile.Field) string {
	switch f {
	case profile.FieldLinkedIn:
		return m.LinkedIn
	case profile.FieldInstagram:
		return m.Instagram
	case profile.FieldAddress:
		return m.Address
	}
	return ""
}

// SetField stores an already validated value
func (m *Member) SetField(f profile.Field, value string) {
	switch f {
	case profile.FieldLinkedIn:
		m.LinkedIn = value
	case profile.FieldInstagram:
		m.Instagram = value
	case profile.FieldAddress:
		m.Address = value
	}
}

// NormalizePhone strips the whatsapp: prefix and formatting and makes sure
// the number starts with +
func NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:")
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

// MemberSearch holds directory search parameters. LinkedIn and Instagram are
// exact canonical values; Terms match name, profession, company or address.
// ExcludeMemberID leaves the searching member out of the results.
type MemberSearch struct {
	Terms           []string `json:"terms"`
	LinkedIn        string   `json:"linkedin"`
	Instagram       string   `json:"instagram"`
	ExcludeMemberID string   `json:"exclude_member_id,omitempty"`
	Limit           int      `json:"limit"`
}
