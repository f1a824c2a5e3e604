package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rcliao/agent-recall/internal/tools"
)

// Dispatcher is an in-process Host. Handlers run in registration order on
// the caller's goroutine; a panicking handler is not recovered.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventName][]Handler
	tools    map[string]tools.Definition
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[EventName][]Handler),
		tools:    make(map[string]tools.Definition),
	}
}

func (d *Dispatcher) On(name EventName, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// RegisterTool adds def, replacing any tool of the same name.
func (d *Dispatcher) RegisterTool(def tools.Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tools[def.Name] = def
}

// Emit runs every handler registered for ev.Name and collects the non-nil
// effects.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) []Effect {
	d.mu.RLock()
	hs := append([]Handler(nil), d.handlers[ev.Name]...)
	d.mu.RUnlock()

	var effects []Effect
	for _, h := range hs {
		if eff := h(ctx, ev); eff != nil {
			effects = append(effects, *eff)
		}
	}
	return effects
}

// CallTool executes the named tool with a raw JSON input.
func (d *Dispatcher) CallTool(ctx context.Context, name string, input json.RawMessage) (tools.Result, error) {
	d.mu.RLock()
	def, ok := d.tools[name]
	d.mu.RUnlock()
	if !ok {
		return tools.Result{}, fmt.Errorf("unknown tool %q", name)
	}
	return def.Execute(ctx, input), nil
}

// ToolNames lists registered tools in name order.
func (d *Dispatcher) ToolNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
