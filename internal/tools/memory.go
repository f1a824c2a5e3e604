package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/agent-recall/internal/model"
)

const (
	defaultListLimit = 20
	forgetCandidates = 5
	storeContext     = "stored by agent"
)

type SearchInput struct {
	Query string `json:"query" jsonschema_description:"What to look for in memory"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of memories to return"`
}

type StoreInput struct {
	Text    string `json:"text" jsonschema_description:"The information to remember"`
	Context string `json:"context,omitempty" jsonschema_description:"Optional note on where the information came from"`
}

type GetInput struct {
	ID string `json:"id" jsonschema_description:"Memory id"`
}

type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum number of memories to list"`
}

type ForgetInput struct {
	ID    string `json:"id,omitempty" jsonschema_description:"Id of the memory to forget"`
	Query string `json:"query,omitempty" jsonschema_description:"Query identifying the memory to forget when the id is unknown"`
}

// Candidate is a memory offered for disambiguation by memory_forget.
type Candidate struct {
	ID   string     `json:"id"`
	Text string     `json:"text"`
	Kind model.Kind `json:"kind,omitempty"`
}

func (ts *Toolset) Search(ctx context.Context, in SearchInput) Result {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return invalid("Provide a query to search for.")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = ts.recallLimit
	}

	ts.bank.Ensure(ctx)
	res, err := ts.backend.Recall(ctx, ts.bank.BankID(), query, limit)
	if err != nil {
		ts.logger.Warn("memory search failed", "component", "tools", "err", err)
		return failure("Memory search", err)
	}

	if len(res.Results) == 0 {
		return Result{
			Text:    "No relevant memories found.",
			Details: map[string]any{"count": 0, "memories": []model.Memory{}},
		}
	}
	return Result{
		Text:    fmt.Sprintf("Found %d memories:\n%s", len(res.Results), formatList(res.Results)),
		Details: map[string]any{"count": len(res.Results), "memories": res.Results},
	}
}

func (ts *Toolset) Store(ctx context.Context, in StoreInput) Result {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return invalid("Provide text to store.")
	}
	label := strings.TrimSpace(in.Context)
	if label == "" {
		label = storeContext
	}

	ts.bank.Ensure(ctx)
	res, err := ts.backend.Retain(ctx, ts.bank.BankID(), []model.CaptureItem{{
		Content:   text,
		Context:   label,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}})
	if err != nil {
		ts.logger.Warn("memory store failed", "component", "tools", "err", err)
		return failure("Memory store", err)
	}

	msg := fmt.Sprintf("Stored: %q", truncate(text, 80))
	if res.ItemsCount == 0 {
		msg = "Submitted to memory; no new facts were extracted."
	}
	return Result{
		Text:    msg,
		Details: map[string]any{"action": "stored", "items_count": res.ItemsCount},
	}
}

func (ts *Toolset) Get(ctx context.Context, in GetInput) Result {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return invalid("Provide a memory id.")
	}

	ts.bank.Ensure(ctx)
	m, err := ts.backend.GetMemory(ctx, ts.bank.BankID(), id)
	if err != nil {
		ts.logger.Warn("memory get failed", "component", "tools", "id", id, "err", err)
		return failure("Memory get", err)
	}
	return Result{
		Text:    fmt.Sprintf("[%s] %s (id: %s)", kindOf(*m), m.Text, m.ID),
		Details: map[string]any{"memory": m},
	}
}

func (ts *Toolset) List(ctx context.Context, in ListInput) Result {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	ts.bank.Ensure(ctx)
	res, err := ts.backend.ListMemories(ctx, ts.bank.BankID(), limit)
	if err != nil {
		ts.logger.Warn("memory list failed", "component", "tools", "err", err)
		return failure("Memory list", err)
	}

	total := res.Total
	if total < len(res.Items) {
		total = len(res.Items)
	}
	details := map[string]any{"count": len(res.Items), "memories": res.Items, "total": total}
	if len(res.Items) == 0 {
		details["memories"] = []model.Memory{}
		return Result{Text: "No memories stored yet.", Details: details}
	}
	return Result{
		Text:    fmt.Sprintf("Showing %d of %d memories:\n%s", len(res.Items), total, formatList(res.Items)),
		Details: details,
	}
}

// Forget deletes by id directly. Given a query instead, it deletes only when
// exactly one memory matches; several matches come back as candidates and
// nothing is deleted.
func (ts *Toolset) Forget(ctx context.Context, in ForgetInput) Result {
	id := strings.TrimSpace(in.ID)
	query := strings.TrimSpace(in.Query)
	if id == "" && query == "" {
		return invalid("Provide either id or query.")
	}

	ts.bank.Ensure(ctx)
	if id != "" {
		return ts.deleteByID(ctx, id)
	}

	res, err := ts.backend.Recall(ctx, ts.bank.BankID(), query, forgetCandidates)
	if err != nil {
		ts.logger.Warn("memory forget lookup failed", "component", "tools", "err", err)
		return failure("Memory forget", err)
	}

	switch len(res.Results) {
	case 0:
		return Result{
			Text:    fmt.Sprintf("No memory matching %q was found.", query),
			Details: map[string]any{"action": "none_found"},
		}
	case 1:
		return ts.deleteByID(ctx, res.Results[0].ID)
	}

	candidates := make([]Candidate, 0, len(res.Results))
	var b strings.Builder
	for _, m := range res.Results {
		candidates = append(candidates, Candidate{ID: m.ID, Text: m.Text, Kind: m.Kind})
		fmt.Fprintf(&b, "- %s: %s\n", m.ID, truncate(m.Text, 120))
	}
	return Result{
		Text:    fmt.Sprintf("Found %d matching memories. Call %s again with the id of the one to forget:\n%s", len(candidates), ForgetName, strings.TrimRight(b.String(), "\n")),
		Details: map[string]any{"action": "candidates", "candidates": candidates},
	}
}

func (ts *Toolset) deleteByID(ctx context.Context, id string) Result {
	res, err := ts.backend.DeleteMemory(ctx, ts.bank.BankID(), id)
	if err != nil {
		ts.logger.Warn("memory delete failed", "component", "tools", "id", id, "err", err)
		return failure("Memory forget", err)
	}
	if !res.Success {
		return Result{
			Text:    fmt.Sprintf("Memory %s was not deleted.", id),
			Details: map[string]any{"action": "not_deleted", "id": id},
		}
	}
	return Result{
		Text:    fmt.Sprintf("Forgot memory %s.", id),
		Details: map[string]any{"action": "deleted", "id": id},
	}
}

func formatList(memories []model.Memory) string {
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = fmt.Sprintf("%d. [%s] %s (id: %s)", i+1, kindOf(m), m.Text, m.ID)
	}
	return strings.Join(lines, "\n")
}

func kindOf(m model.Memory) model.Kind {
	if m.Kind == "" {
		return model.KindWorld
	}
	return m.Kind
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
