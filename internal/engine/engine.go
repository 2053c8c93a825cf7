package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/rkellner/notefire/internal/bridge"
	"github.com/rkellner/notefire/internal/ledger"
	"github.com/rkellner/notefire/internal/schema"
	"github.com/rkellner/notefire/internal/store"
	"github.com/rkellner/notefire/internal/tag"
)

// defaultBridgeTimeout bounds a single bridge call in execute mode.
const defaultBridgeTimeout = 15 * time.Second

// Engine is the run orchestrator. It owns the ledger for the duration of
// a run and drives every occurrence through the scan, parse, validate,
// resolve, fingerprint, dispatch pipeline.
//
// Not safe for concurrent runs; the advisory ledger lock enforces single
// ownership across processes, and the caller enforces it within one.
type Engine struct {
	ledger  *ledger.Ledger
	bridge  bridge.Bridge
	schemas *schema.Set

	audit   *store.Store // optional; diagnostics only
	logger  *slog.Logger
	now     func() time.Time
	tokens  TokenGenerator
	timeout time.Duration

	// confirmMessages gates real message dispatch. Without it a message
	// directive is simulated even in execute mode.
	confirmMessages bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the wall-clock source. Tests pin it for
// reproducible time resolution.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTokens overrides the run token generator.
func WithTokens(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithBridgeTimeout overrides the per-call bridge timeout.
func WithBridgeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithAudit attaches the audit store. Audit writes are best-effort: a
// failed write is logged and the run continues, because the ledger - not
// the audit store - is the idempotency record.
func WithAudit(s *store.Store) Option {
	return func(e *Engine) { e.audit = s }
}

// WithConfirmMessages enables real message dispatch in execute mode.
func WithConfirmMessages(confirm bool) Option {
	return func(e *Engine) { e.confirmMessages = confirm }
}

// WithLogger overrides the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine over an opened ledger, a bridge, and compiled
// directive schemas.
func New(l *ledger.Ledger, b bridge.Bridge, s *schema.Set, opts ...Option) *Engine {
	e := &Engine{
		ledger:  l,
		bridge:  b,
		schemas: s,
		logger:  slog.Default(),
		now:     time.Now,
		tokens:  UUIDv7Generator{},
		timeout: defaultBridgeTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes every document front to back and returns the full
// report. Run never fails as a whole: every per-occurrence problem is a
// detail in the report, and a cancelled context fails the remaining
// dispatches without abandoning the in-flight one.
//
// All time expressions in a run resolve against the same reference
// instant, taken once at run start.
func (e *Engine) Run(ctx context.Context, docs []Document, mode Mode) *Report {
	started := e.now()
	report := &Report{
		RunToken:  e.tokens.Generate(),
		Mode:      mode.String(),
		Documents: len(docs),
		Details:   []Detail{},
	}
	clock := NewClock()

	e.logger.Info("run started",
		"run_token", report.RunToken,
		"mode", report.Mode,
		"documents", len(docs))

	e.auditBegin(ctx, report, started)

	for _, doc := range docs {
		tags, scanErrs := tag.Scan(doc.Path, doc.Text)

		details := make([]Detail, 0, len(tags)+len(scanErrs))
		for _, raw := range tags {
			details = append(details, e.process(ctx, raw, started, mode))
		}

		// Malformed tags are reported, never silently dropped.
		for _, pe := range scanErrs {
			details = append(details, Detail{
				Document: pe.Document,
				Line:     pe.Line,
				Outcome:  OutcomeInvalid,
				Reason:   pe.Message,
			})
		}

		// Details follow document line order even when a malformed tag
		// sits between valid ones.
		sort.SliceStable(details, func(i, j int) bool {
			return details[i].Line < details[j].Line
		})

		for _, d := range details {
			d.Seq = clock.Next()
			report.add(d)
			e.auditDispatch(ctx, report.RunToken, d)
		}
	}

	e.auditFinish(ctx, report)

	e.logger.Info("run finished",
		"run_token", report.RunToken,
		"sent", report.Sent,
		"already_sent", report.AlreadySent,
		"failed", report.Failed,
		"invalid", report.Invalid)

	return report
}

func (e *Engine) auditBegin(ctx context.Context, r *Report, started time.Time) {
	if e.audit == nil {
		return
	}
	if err := e.audit.BeginRun(ctx, r.RunToken, r.Mode, started, r.Documents); err != nil {
		e.logger.Warn("audit begin failed", "run_token", r.RunToken, "error", err)
	}
}

func (e *Engine) auditDispatch(ctx context.Context, token string, d Detail) {
	if e.audit == nil {
		return
	}
	err := e.audit.RecordDispatch(ctx, store.DispatchRecord{
		RunToken:    token,
		Seq:         d.Seq,
		Fingerprint: d.Fingerprint,
		Kind:        d.Kind,
		Document:    d.Document,
		Line:        d.Line,
		Outcome:     string(d.Outcome),
		Simulated:   d.Simulated,
		Reason:      d.Reason,
		Receipt:     d.Receipt,
	})
	if err != nil {
		e.logger.Warn("audit dispatch failed", "run_token", token, "seq", d.Seq, "error", err)
	}
}

func (e *Engine) auditFinish(ctx context.Context, r *Report) {
	if e.audit == nil {
		return
	}
	err := e.audit.FinishRun(ctx, r.RunToken, e.now(),
		r.Sent, r.AlreadySent, r.Failed, r.Invalid)
	if err != nil {
		e.logger.Warn("audit finish failed", "run_token", r.RunToken, "error", err)
	}
}
