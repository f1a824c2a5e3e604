package hooks

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/agent-recall/internal/bank"
	"github.com/rcliao/agent-recall/internal/capture"
	"github.com/rcliao/agent-recall/internal/config"
	"github.com/rcliao/agent-recall/internal/sanitize"
	"github.com/rcliao/agent-recall/internal/tools"
)

// minPromptLength is the shortest prompt, in characters, that triggers recall.
const minPromptLength = 5

// Service is everything the orchestrator needs from the memory service.
// *client.Client implements it.
type Service interface {
	bank.Ensurer
	tools.Backend
}

// Orchestrator holds one bank manager and the tools bound to it. Create one
// per plugin instance; instances share no state.
type Orchestrator struct {
	cfg     config.Config
	svc     Service
	bank    *bank.Manager
	toolset *tools.Toolset
	logger  *slog.Logger
	now     func() time.Time
}

// New builds an orchestrator for cfg. A nil logger uses slog.Default.
func New(cfg config.Config, svc Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	m := bank.NewManager(svc, cfg.BankID, cfg.Mission, logger)
	return &Orchestrator{
		cfg:     cfg,
		svc:     svc,
		bank:    m,
		toolset: tools.New(svc, m, cfg.RecallLimit, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Bank returns the orchestrator's bank manager.
func (o *Orchestrator) Bank() *bank.Manager { return o.bank }

// Tools returns the memory tool definitions.
func (o *Orchestrator) Tools() []tools.Definition { return o.toolset.Definitions() }

// Register attaches both lifecycle handlers and all memory tools to host.
func (o *Orchestrator) Register(host Host) {
	host.On(BeforeAgentStart, o.BeforeTurn)
	host.On(AgentEnd, o.AfterTurn)
	for _, def := range o.Tools() {
		host.RegisterTool(def)
	}
}

// BeforeTurn recalls memories relevant to the prompt and returns them as
// context to prepend. It returns nil when there is nothing to add, including
// on any failure.
func (o *Orchestrator) BeforeTurn(ctx context.Context, ev Event) *Effect {
	if !o.cfg.AutoRecall {
		return nil
	}
	prompt := strings.TrimSpace(ev.Prompt)
	if utf8.RuneCountInString(prompt) < minPromptLength {
		return nil
	}

	o.bank.Ensure(ctx)
	res, err := o.svc.Recall(ctx, o.bank.BankID(), prompt, o.cfg.RecallLimit)
	if err != nil {
		o.logger.Warn("auto-recall failed", "component", "hooks", "err", err)
		return nil
	}
	if len(res.Results) == 0 {
		o.logger.Debug("auto-recall found nothing", "component", "hooks")
		return nil
	}

	o.logger.Debug("auto-recall injected memories", "component", "hooks", "count", len(res.Results))
	return &Effect{PrependContext: sanitize.FormatContext(res.Results)}
}

// AfterTurn stores the substantive recent messages of a successful turn.
// It never produces an effect.
func (o *Orchestrator) AfterTurn(ctx context.Context, ev Event) *Effect {
	if !o.cfg.AutoCapture || !ev.Success || len(ev.Messages) == 0 {
		return nil
	}

	now := o.now()
	items := capture.Extract(ev.Messages, capture.Options{
		MaxMessages: o.cfg.CaptureMaxMessages,
		DocumentID:  documentID(ev, now),
		Now:         now,
	})
	if len(items) == 0 {
		o.logger.Debug("auto-capture skipped, nothing substantive", "component", "hooks")
		return nil
	}

	o.bank.Ensure(ctx)
	res, err := o.svc.Retain(ctx, o.bank.BankID(), items)
	if err != nil {
		o.logger.Warn("auto-capture failed", "component", "hooks", "items", len(items), "err", err)
		return nil
	}
	if res.ItemsCount == 0 {
		o.logger.Debug("auto-capture accepted no items", "component", "hooks", "submitted", len(items))
		return nil
	}
	o.logger.Debug("auto-capture stored", "component", "hooks", "items", res.ItemsCount)
	return nil
}

// documentID groups one capture: the session when known, else a fresh ULID.
func documentID(ev Event, now time.Time) string {
	if id := strings.TrimSpace(ev.SessionID); id != "" {
		return "session-" + id
	}
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
