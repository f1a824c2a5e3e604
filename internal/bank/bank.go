// Package bank lazily ensures the configured memory bank exists.
package bank

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/rcliao/agent-recall/internal/model"
)

// Ensurer creates or fetches a bank. *client.Client implements it.
type Ensurer interface {
	EnsureBank(ctx context.Context, bankID, mission string) (*model.BankInfo, error)
}

// Manager remembers, for its own lifetime, that the bank was ensured.
//
// The ready cell only moves from false to true. Two concurrent first calls
// may both reach the service; ensure is idempotent there so no lock is held.
type Manager struct {
	ensurer Ensurer
	bankID  string
	mission string
	logger  *slog.Logger
	ready   atomic.Bool
}

// NewManager returns a manager for bankID. A nil logger uses slog.Default.
func NewManager(e Ensurer, bankID, mission string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ensurer: e,
		bankID:  bankID,
		mission: mission,
		logger:  logger,
	}
}

// BankID returns the managed bank.
func (m *Manager) BankID() string { return m.bankID }

// Ready reports whether an ensure call has succeeded.
func (m *Manager) Ready() bool { return m.ready.Load() }

// Ensure makes one ensure attempt unless the bank is already known to exist.
// Failure is logged and otherwise ignored: the bank may exist from an earlier
// process, so the caller goes ahead with its operation either way.
func (m *Manager) Ensure(ctx context.Context) {
	if m.ready.Load() {
		return
	}
	if _, err := m.ensurer.EnsureBank(ctx, m.bankID, m.mission); err != nil {
		m.logger.Warn("ensure bank failed, continuing", "component", "bank", "bank", m.bankID, "err", err)
		return
	}
	m.ready.Store(true)
	m.logger.Debug("bank ready", "component", "bank", "bank", m.bankID)
}
