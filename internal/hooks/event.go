// Package hooks wires automatic recall and capture into an agent runtime's
// lifecycle events and registers the explicit memory tools.
package hooks

import (
	"context"

	"github.com/rcliao/agent-recall/internal/capture"
	"github.com/rcliao/agent-recall/internal/tools"
)

// EventName identifies a lifecycle event of the host runtime.
type EventName string

const (
	// BeforeAgentStart fires before the agent answers a prompt.
	BeforeAgentStart EventName = "before_agent_start"
	// AgentEnd fires once the agent finished a turn.
	AgentEnd EventName = "agent_end"
)

// Event is the payload handed to a handler. Which fields are set depends on
// Name: Prompt for BeforeAgentStart, the rest for AgentEnd.
type Event struct {
	Name      EventName      `json:"name"`
	Prompt    string         `json:"prompt,omitempty"`
	Success   bool           `json:"success,omitempty"`
	Messages  []capture.Turn `json:"messages,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
}

// Effect is what a handler asks the host to do. A nil effect means nothing.
type Effect struct {
	// PrependContext is text the host places before the prompt.
	PrependContext string `json:"prependContext,omitempty"`
}

// Handler reacts to one event.
type Handler func(ctx context.Context, ev Event) *Effect

// Host is the part of an agent runtime the orchestrator plugs into.
type Host interface {
	On(name EventName, h Handler)
	RegisterTool(def tools.Definition)
}
