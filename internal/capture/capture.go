// Package capture turns recent conversation turns into memory items for the
// retain operation.
package capture

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcliao/agent-recall/internal/model"
	"github.com/rcliao/agent-recall/internal/sanitize"
)

// MinLength is the shortest text, in characters, worth storing.
const MinLength = 10

// Context labels attached to captured items.
const (
	ContextUser      = "user message"
	ContextAssistant = "assistant response"
)

// Options controls Extract.
type Options struct {
	// MaxMessages is the window of most recent turns considered. Zero or
	// less considers every turn.
	MaxMessages int
	// DocumentID groups the items of one capture, if set.
	DocumentID string
	// Now stamps each item; the zero time leaves the timestamp empty.
	Now time.Time
}

// Extract returns one item per substantive user or assistant turn among the
// last opts.MaxMessages turns, in conversation order. Earlier turns are
// ignored entirely.
func Extract(turns []Turn, opts Options) []model.CaptureItem {
	if opts.MaxMessages > 0 && len(turns) > opts.MaxMessages {
		turns = turns[len(turns)-opts.MaxMessages:]
	}

	var timestamp string
	if !opts.Now.IsZero() {
		timestamp = opts.Now.UTC().Format(time.RFC3339)
	}

	var items []model.CaptureItem
	for _, t := range turns {
		label, ok := contextLabel(t.Role)
		if !ok {
			continue
		}
		text, ok := substantive(t.Content.Normalize())
		if !ok {
			continue
		}
		items = append(items, model.CaptureItem{
			Content:    fmt.Sprintf("[%s]: %s", t.Role, text),
			Context:    label,
			DocumentID: opts.DocumentID,
			Timestamp:  timestamp,
		})
	}
	return items
}

func contextLabel(r Role) (string, bool) {
	switch r {
	case RoleUser:
		return ContextUser, true
	case RoleAssistant:
		return ContextAssistant, true
	}
	return "", false
}

// substantive trims text, drops injected memory blocks, and reports whether
// what remains is long enough to keep.
func substantive(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinLength {
		return "", false
	}
	if sanitize.HasContext(text) {
		text = sanitize.StripContext(text)
		if utf8.RuneCountInString(text) < MinLength {
			return "", false
		}
	}
	return text, true
}
