package cli

import (
	"log/slog"
	"time"

	"github.com/rkellner/notefire/internal/bridge"
	"github.com/rkellner/notefire/internal/engine"
	"github.com/rkellner/notefire/internal/ledger"
	"github.com/rkellner/notefire/internal/schema"
	"github.com/rkellner/notefire/internal/store"
)

// app bundles everything an engine-facing command opens from config.
// Close releases resources in reverse acquisition order.
type app struct {
	cfg    *Config
	ledger *ledger.Ledger
	lock   *ledger.Lock
	audit  *store.Store
	bridge *bridge.ExecBridge
	engine *engine.Engine
}

// appOptions controls what openApp acquires.
type appOptions struct {
	// withLock takes the advisory ledger lock. Required for anything that
	// writes the ledger (run, reset); scans read a point-in-time snapshot
	// and skip it.
	withLock bool

	// confirmMessages is the flag-level confirmation, OR-ed with the
	// config setting.
	confirmMessages bool
}

// openApp loads config and assembles the engine with its collaborators.
func openApp(opts *RootOptions, ao appOptions) (*app, error) {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve timezone", err)
	}

	a := &app{cfg: cfg}

	if ao.withLock {
		lock, err := ledger.AcquireLock(cfg.Ledger)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "ledger is locked by another process", err)
		}
		a.lock = lock
	}

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	a.ledger = l

	schemas, err := schema.Load()
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load directive schemas", err)
	}

	engOpts := []engine.Option{
		engine.WithNow(func() time.Time { return time.Now().In(loc) }),
		engine.WithConfirmMessages(cfg.ConfirmMessages || ao.confirmMessages),
	}
	if d := cfg.BridgeTimeout(); d > 0 {
		engOpts = append(engOpts, engine.WithBridgeTimeout(d))
	}

	if cfg.AuditDB != "" {
		st, err := store.Open(cfg.AuditDB)
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open audit database", err)
		}
		a.audit = st
		engOpts = append(engOpts, engine.WithAudit(st))
	}

	a.bridge = &bridge.ExecBridge{
		ReminderCommand: cfg.Bridge.ReminderCommand,
		CalendarCommand: cfg.Bridge.CalendarCommand,
		MessageCommand:  cfg.Bridge.MessageCommand,
	}

	a.engine = engine.New(l, a.bridge, schemas, engOpts...)
	return a, nil
}

// validateBridge ensures every bridge command is configured. Only execute
// mode needs this; dry runs never touch the bridge.
func (a *app) validateBridge() error {
	if err := a.bridge.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "bridge not fully configured", err)
	}
	return nil
}

// Close releases the audit store and the advisory lock.
func (a *app) Close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			slog.Error("error closing audit database", "error", err)
		}
		a.audit = nil
	}
	if a.lock != nil {
		if err := a.lock.Release(); err != nil {
			slog.Error("error releasing ledger lock", "error", err)
		}
		a.lock = nil
	}
}
