// Package profile holds the editable member profile fields and the validators
// that normalize a raw WhatsApp reply into the value stored for each field.
//
// Validators are pure: no I/O, no logging, and a rejected value is a normal
// result carrying a message for the member, never an error.
package profile

import (
	"fmt"
	"strings"
)

// ValidationResult is the outcome of validating one field value.
// Value is set only when Valid; Message only when not.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

func accept(value string) ValidationResult {
	return ValidationResult{Valid: true, Value: value}
}

func reject(message string) ValidationResult {
	return ValidationResult{Message: message}
}

// ValidateField dispatches raw to the validator for field
func ValidateField(field Field, raw string) ValidationResult {
	switch field {
	case FieldLinkedIn:
		return ValidateLinkedIn(raw)
	case FieldInstagram:
		return ValidateInstagram(raw)
	case FieldAddress:
		return ValidateAddress(raw)
	}
	return reject(fmt.Sprintf("%q is not a profile field you can update.", string(field)))
}

// hasWhitespace reports whether s contains any space, tab or newline
func hasWhitespace(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) >= 0
}
