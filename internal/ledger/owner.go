package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Owner reference length bounds, in runes after normalization.
const (
	MinOwnerLen = 3
	MaxOwnerLen = 80
)

// NormalizeOwner canonicalizes an owner reference: trims surrounding
// whitespace and applies Unicode NFC so that visually identical references
// compare equal under the store's uniqueness constraint.
func NormalizeOwner(owner string) string {
	return norm.NFC.String(strings.TrimSpace(owner))
}

// ValidateOwner normalizes and validates an owner reference, returning the
// canonical form. Returns a *ValidationError if the reference is empty,
// too short, or too long.
func ValidateOwner(owner string) (string, error) {
	owner = NormalizeOwner(owner)
	n := utf8.RuneCountInString(owner)
	switch {
	case n == 0:
		return "", NewValidationError("owner", "must not be empty")
	case n < MinOwnerLen:
		return "", NewValidationError("owner", fmt.Sprintf("at least %d characters", MinOwnerLen))
	case n > MaxOwnerLen:
		return "", NewValidationError("owner", fmt.Sprintf("at most %d characters", MaxOwnerLen))
	}
	return owner, nil
}

// NormalizeNote canonicalizes a counterparty note the same way owner
// references are canonicalized. Notes are free-form and may be empty.
func NormalizeNote(note string) string {
	return norm.NFC.String(strings.TrimSpace(note))
}
