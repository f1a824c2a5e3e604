package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation as supplied by the host runtime.
type Turn struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// Block is one element of structured message content. Only blocks carrying
// text contribute to the normalized message.
type Block struct {
	Type string  `json:"type,omitempty"`
	Text *string `json:"text,omitempty"`
}

// TextBlock returns a text-carrying block.
func TextBlock(s string) Block {
	return Block{Type: "text", Text: &s}
}

// Content is either plain text or an ordered sequence of blocks.
type Content struct {
	text     string
	blocks   []Block
	isBlocks bool
}

// Text returns plain-text content.
func Text(s string) Content {
	return Content{text: s}
}

// Blocks returns block content.
func Blocks(blocks ...Block) Content {
	return Content{blocks: blocks, isBlocks: true}
}

// IsBlocks reports whether the content is the block variant.
func (c Content) IsBlocks() bool { return c.isBlocks }

// Normalize flattens content to a plain string. Block text is joined with
// newlines in original order.
func (c Content) Normalize() string {
	if !c.isBlocks {
		return c.text
	}
	parts := make([]string, 0, len(c.blocks))
	for _, b := range c.blocks {
		if b.Text != nil {
			parts = append(parts, *b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.isBlocks {
		if c.blocks == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.blocks)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts a string, an array of blocks, or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
		return nil
	case data[0] == '[':
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return err
		}
		*c = Blocks(blocks...)
		return nil
	default:
		return fmt.Errorf("capture: content must be a string or an array of blocks, got %s", data[:1])
	}
}
