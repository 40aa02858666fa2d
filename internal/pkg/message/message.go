// Package message holds the commit message produced by a backend.
package message

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxLength is the advisory length asked for in the prompt.
const MaxLength = 150

// ErrEmpty is returned by New when the generated text is blank.
var ErrEmpty = errors.New("empty commit message")

// CommitMessage is a trimmed, non-empty commit message.
type CommitMessage struct {
	text string
}

// New trims surrounding whitespace from raw. Interior text is kept verbatim.
func New(raw string) (CommitMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return CommitMessage{}, ErrEmpty
	}
	return CommitMessage{text: text}, nil
}

// String returns the message text.
func (m CommitMessage) String() string {
	return m.text
}

// IsMultiLine reports whether the message spans more than one line.
func (m CommitMessage) IsMultiLine() bool {
	return strings.Contains(m.text, "\n")
}

// Length returns the message length in characters.
func (m CommitMessage) Length() int {
	return utf8.RuneCountInString(m.text)
}

// Warnings lists advisory problems with the message. None of them
// prevent a commit.
func (m CommitMessage) Warnings() []string {
	var warnings []string
	if n := m.Length(); n > MaxLength {
		warnings = append(warnings, fmt.Sprintf("message exceeds %d characters (%d chars)", MaxLength, n))
	}
	if m.IsMultiLine() {
		warnings = append(warnings, "message spans multiple lines")
	}
	return warnings
}
