package profile

import "strings"

// Field names an editable member profile field
type Field string

const (
	FieldLinkedIn  Field = "linkedin"
	FieldInstagram Field = "instagram"
	FieldAddress   Field = "address"
)

var allFields = []Field{FieldLinkedIn, FieldInstagram, FieldAddress}

// fieldAliases maps what members actually type to the field they mean
var fieldAliases = map[string]Field{
	"linkedin":  FieldLinkedIn,
	"linked-in": FieldLinkedIn,
	"instagram": FieldInstagram,
	"insta":     FieldInstagram,
	"ig":        FieldInstagram,
	"address":   FieldAddress,
	"location":  FieldAddress,
	"city":      FieldAddress,
}

// AllFields returns every editable field in display order
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// Valid reports whether f is one of the editable fields
func (f Field) Valid() bool {
	for _, known := range allFields {
		if f == known {
			return true
		}
	}
	return false
}

// Label returns the name shown to members
func (f Field) Label() string {
	switch f {
	case FieldLinkedIn:
		return "LinkedIn"
	case FieldInstagram:
		return "Instagram"
	case FieldAddress:
		return "address"
	}
	return string(f)
}

func (f Field) String() string {
	return string(f)
}

// ParseField resolves a field name or one of its aliases, case-insensitively
func ParseField(s string) (Field, bool) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}
