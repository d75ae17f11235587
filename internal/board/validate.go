package board

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateOwnerName trims raw and checks it against the owner-name rules:
// non-empty, at most MaxOwnerNameLength runes, and only letters, digits,
// whitespace, hyphen, period and apostrophe. On success it returns the
// trimmed name with its case untouched.
func ValidateOwnerName(raw string) (string, *OwnerError) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", newOwnerError(KindEmptyName, "owner name is empty")
	}
	if utf8.RuneCountInString(name) > MaxOwnerNameLength {
		return "", newOwnerError(KindNameTooLong, "owner name exceeds %d characters", MaxOwnerNameLength)
	}
	for _, r := range name {
		if !isAllowedOwnerRune(r) {
			return "", newOwnerError(KindInvalidCharacters, "owner name contains invalid character %q", r)
		}
	}
	return name, nil
}

func isAllowedOwnerRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	case r == '-', r == '.', r == '\'':
		return true
	default:
		return false
	}
}
