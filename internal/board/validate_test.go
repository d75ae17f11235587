package board

import (
	"strings"
	"testing"
)

func TestValidateOwnerName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		kind     Kind
	}{
		{
			name:     "simple name",
			input:    "Alice",
			expected: "Alice",
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  Bob Smith  ",
			expected: "Bob Smith",
		},
		{
			name:     "hyphen period and apostrophe are allowed",
			input:    "Mary-Jane O'Brien Jr.",
			expected: "Mary-Jane O'Brien Jr.",
		},
		{
			name:     "digits are allowed",
			input:    "agent 007",
			expected: "agent 007",
		},
		{
			name:     "unicode letters are allowed",
			input:    "Löwe 老虎",
			expected: "Löwe 老虎",
		},
		{
			name:  "empty input",
			input: "",
			kind:  KindEmptyName,
		},
		{
			name:  "whitespace only",
			input: "   \t ",
			kind:  KindEmptyName,
		},
		{
			name:  "too long after trimming",
			input: strings.Repeat("a", 31),
			kind:  KindNameTooLong,
		},
		{
			name:     "exactly at the length limit",
			input:    strings.Repeat("a", 30),
			expected: strings.Repeat("a", 30),
		},
		{
			name:     "multibyte runes count as one character",
			input:    strings.Repeat("あ", 30),
			expected: strings.Repeat("あ", 30),
		},
		{
			name:  "special characters are rejected",
			input: "alice@example.com:8080",
			kind:  KindInvalidCharacters,
		},
		{
			name:  "underscore is rejected",
			input: "alice_b",
			kind:  KindInvalidCharacters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateOwnerName(tt.input)
			if tt.kind != "" {
				if err == nil {
					t.Fatalf("expected %s error, got name %q", tt.kind, got)
				}
				if err.Kind != tt.kind {
					t.Errorf("expected kind %s, got %s", tt.kind, err.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	_, err := ValidateOwnerName("")
	if !IsKind(err, KindEmptyName) {
		t.Error("expected IsKind to match KindEmptyName")
	}
	if IsKind(err, KindNameTooLong) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(nil, KindEmptyName) {
		t.Error("IsKind matched a nil error")
	}
}
