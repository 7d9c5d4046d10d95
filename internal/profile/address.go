package profile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minAddressVisible = 2
	maxAddressRunes   = 500
)

// ValidateAddress accepts any free-text location once trimmed. Text in any
// script is kept as typed; there is no geocoding.
func ValidateAddress(input string) ValidationResult {
	s := trimSpace(input)
	if s == "" {
		return reject("Please send your address, or at least your city.")
	}

	visible := 0
	for _, r := range s {
		if !unicode.IsSpace(r) && unicode.IsGraphic(r) {
			visible++
		}
	}
	if visible < minAddressVisible {
		return reject("That address looks too short. Please send your city or full address.")
	}

	if utf8.RuneCountInString(s) > maxAddressRunes {
		return reject("That address is too long. Please keep it under 500 characters.")
	}

	return accept(s)
}

// trimSpace trims Unicode whitespace including the zero-width space and
// byte-order mark some WhatsApp clients paste in.
func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff'
	})
}
