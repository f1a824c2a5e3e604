// Package tools exposes explicit memory operations as agent tools.
//
// Each tool decodes a JSON input, makes sure the bank exists, performs one or
// two service calls and returns a human-readable summary plus a structured
// details payload. Service failures come back as failure results, never as Go
// errors, so the agent always sees a normal tool response.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"

	"github.com/rcliao/agent-recall/internal/bank"
	"github.com/rcliao/agent-recall/internal/model"
)

const (
	SearchName = "memory_search"
	StoreName  = "memory_store"
	GetName    = "memory_get"
	ListName   = "memory_list"
	ForgetName = "memory_forget"
)

// Backend is the subset of the memory service client the tools use.
type Backend interface {
	Retain(ctx context.Context, bankID string, items []model.CaptureItem) (*model.RetainResult, error)
	Recall(ctx context.Context, bankID, query string, limit int) (*model.RecallResult, error)
	ListMemories(ctx context.Context, bankID string, limit int) (*model.ListResult, error)
	GetMemory(ctx context.Context, bankID, id string) (*model.Memory, error)
	DeleteMemory(ctx context.Context, bankID, id string) (*model.DeleteResult, error)
}

// Result is what a tool hands back to the agent.
type Result struct {
	Text    string         `json:"text"`
	Details map[string]any `json:"details"`
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	_, ok := r.Details["error"]
	return ok
}

// Definition describes one invokable tool.
type Definition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Execute     func(ctx context.Context, input json.RawMessage) Result
}

// GenerateSchema derives an inline JSON Schema from a Go input struct.
func GenerateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

func define[T any](name, description string, run func(context.Context, T) Result) Definition {
	return Definition{
		Name:        name,
		Description: description,
		InputSchema: GenerateSchema[T](),
		Execute: func(ctx context.Context, input json.RawMessage) Result {
			var in T
			if len(bytes.TrimSpace(input)) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return invalid(fmt.Sprintf("Invalid input: %v", err))
				}
			}
			return run(ctx, in)
		},
	}
}

func failure(op string, err error) Result {
	return Result{
		Text:    fmt.Sprintf("%s failed: %v", op, err),
		Details: map[string]any{"error": err.Error()},
	}
}

func invalid(msg string) Result {
	return Result{
		Text:    msg,
		Details: map[string]any{"error": msg},
	}
}

// Toolset binds the memory tools to one bank.
type Toolset struct {
	backend     Backend
	bank        *bank.Manager
	recallLimit int
	logger      *slog.Logger
}

// New returns the tools for the bank managed by m. recallLimit is the default
// result count for memory_search.
func New(b Backend, m *bank.Manager, recallLimit int, logger *slog.Logger) *Toolset {
	if logger == nil {
		logger = slog.Default()
	}
	if recallLimit <= 0 {
		recallLimit = 5
	}
	return &Toolset{backend: b, bank: m, recallLimit: recallLimit, logger: logger}
}

// Definitions returns the five memory tools.
func (ts *Toolset) Definitions() []Definition {
	return []Definition{
		define(SearchName, "Search long-term memory for facts and past interactions relevant to a query.", ts.Search),
		define(StoreName, "Store a piece of information in long-term memory.", ts.Store),
		define(GetName, "Fetch a single memory by id.", ts.Get),
		define(ListName, "List stored memories.", ts.List),
		define(ForgetName, "Forget a memory, either by id or by a query that matches exactly one memory.", ts.Forget),
	}
}
