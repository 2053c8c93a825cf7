package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rkellner/notefire/internal/bridge"
	"github.com/rkellner/notefire/internal/fingerprint"
	"github.com/rkellner/notefire/internal/ledger"
	"github.com/rkellner/notefire/internal/tag"
	"github.com/rkellner/notefire/internal/timeexpr"
)

// defaultEventDuration applies when a calendar directive omits duration.
const defaultEventDuration = time.Hour

// process drives one raw tag to its terminal outcome. Every return path
// yields a complete Detail; the caller assigns the seq.
func (e *Engine) process(ctx context.Context, raw tag.RawTag, now time.Time, mode Mode) Detail {
	d := Detail{
		Document: raw.Document,
		Line:     raw.Line,
		Index:    raw.Index,
		Kind:     string(raw.Kind),
	}

	params, err := tag.ParseParams(raw.RawParams)
	if err != nil {
		d.Outcome = OutcomeInvalid
		d.Reason = err.Error()
		return d
	}
	occ := tag.NewOccurrence(raw, params)

	res := e.schemas.Validate(occ)
	d.Warnings = res.Warnings
	for _, key := range res.Unknown {
		d.Warnings = append(d.Warnings, fmt.Sprintf("unknown parameter %q ignored", key))
	}
	if !res.Valid() {
		d.Outcome = OutcomeInvalid
		d.Reason = res.Reason()
		return d
	}

	// Reminders and events carry a time expression; messages do not.
	var at timeexpr.Resolved
	if raw.Kind == tag.KindReminder || raw.Kind == tag.KindCalendar {
		expr, _ := params.Get("at")
		at, err = timeexpr.Resolve(expr.Str, now)
		if err != nil {
			d.Outcome = OutcomeInvalid
			d.Reason = err.Error()
			return d
		}
		d.At = &at.At
		d.PastDue = at.PastDue
	}

	fp, err := fingerprint.Compute(occ)
	if err != nil {
		d.Outcome = OutcomeInvalid
		d.Reason = fmt.Sprintf("fingerprint: %v", err)
		return d
	}
	d.Fingerprint = fp

	if entry, fired := e.ledger.Entry(fp); fired {
		d.Outcome = OutcomeAlreadySent
		d.Receipt = entry.Receipt
		return d
	}

	if mode == ModeDryRun {
		d.Outcome = OutcomeSent
		d.Simulated = true
		return d
	}

	// Messages are irreversible: execute mode alone is not enough, the
	// operator must also confirm. Unconfirmed messages stay simulated and
	// unledgered so a later confirmed run still sends them.
	if raw.Kind == tag.KindMessage && !e.confirmMessages {
		d.Outcome = OutcomeSent
		d.Simulated = true
		d.Reason = "message dispatch not confirmed; simulated"
		return d
	}

	// A cancelled run stops starting new bridge calls.
	if err := ctx.Err(); err != nil {
		d.Outcome = OutcomeFailed
		d.Reason = fmt.Sprintf("run cancelled: %v", err)
		return d
	}

	receipt, err := e.dispatch(ctx, occ, at)
	if err != nil {
		d.Outcome = OutcomeFailed
		d.Reason = err.Error()
		e.logger.Warn("dispatch failed",
			"kind", d.Kind,
			"document", d.Document,
			"line", d.Line,
			"code", string(bridge.CodeOf(err)),
			"error", err)
		return d
	}

	err = e.ledger.MarkFired(fp, ledger.Entry{
		Kind:     string(occ.Kind),
		Document: occ.Document,
		Line:     occ.Line,
		FiredAt:  e.now(),
		Receipt:  receipt,
	})
	if err != nil {
		// The external action exists but the record of it does not. Report
		// failed so the operator investigates; the next run may re-fire.
		d.Outcome = OutcomeFailed
		d.Reason = fmt.Sprintf("dispatched (receipt %s) but ledger write failed: %v", receipt, err)
		e.logger.Error("ledger write failed after dispatch",
			"fingerprint", fp,
			"receipt", receipt,
			"error", err)
		return d
	}

	d.Outcome = OutcomeSent
	d.Receipt = receipt
	return d
}

// dispatch performs the bridge call for one validated occurrence,
// bounded by the per-call timeout.
func (e *Engine) dispatch(ctx context.Context, occ *tag.Occurrence, at timeexpr.Resolved) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	switch occ.Kind {
	case tag.KindReminder:
		return e.bridge.CreateReminder(callCtx, bridge.ReminderRequest{
			Message:  strParam(occ.Params, "message"),
			At:       at.At,
			List:     strParam(occ.Params, "list"),
			Note:     strParam(occ.Params, "note"),
			Priority: intParam(occ.Params, "priority"),
			Flagged:  boolParam(occ.Params, "flagged"),
		})

	case tag.KindCalendar:
		dur := defaultEventDuration
		if raw := strParam(occ.Params, "duration"); raw != "" {
			// Already validated by the schema; a parse failure here would
			// be a programming error, not bad input.
			parsed, err := timeexpr.ParseSpan(raw)
			if err != nil {
				return "", fmt.Errorf("event duration: %w", err)
			}
			dur = parsed
		}
		return e.bridge.CreateEvent(callCtx, bridge.EventRequest{
			Message:         strParam(occ.Params, "message"),
			At:              at.At,
			Duration:        dur,
			DurationMinutes: int(dur / time.Minute),
			Calendar:        strParam(occ.Params, "calendar"),
			Location:        strParam(occ.Params, "location"),
			Note:            strParam(occ.Params, "note"),
		})

	case tag.KindMessage:
		return e.bridge.SendMessage(callCtx, bridge.MessageRequest{
			To:      strParam(occ.Params, "to"),
			Message: strParam(occ.Params, "message"),
		})

	default:
		return "", fmt.Errorf("no dispatcher for kind %q", occ.Kind)
	}
}

func strParam(p *tag.Params, key string) string {
	if v, ok := p.Get(key); ok && v.Type == tag.TypeString {
		return v.Str
	}
	return ""
}

func intParam(p *tag.Params, key string) int {
	if v, ok := p.Get(key); ok && v.Type == tag.TypeInt {
		return int(v.Int)
	}
	return 0
}

func boolParam(p *tag.Params, key string) bool {
	if v, ok := p.Get(key); ok && v.Type == tag.TypeBool {
		return v.Bool
	}
	return false
}
