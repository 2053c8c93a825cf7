package engine

import "time"

// Mode selects whether dispatches reach the bridge or are simulated.
type Mode int

const (
	// ModeDryRun simulates every dispatch. No bridge calls, no ledger
	// writes, no external side effects of any kind.
	ModeDryRun Mode = iota

	// ModeExecute performs dispatches for real and records them in the
	// ledger. Message directives additionally require confirmation.
	ModeExecute
)

// String returns the mode name used in reports and audit rows.
func (m Mode) String() string {
	if m == ModeExecute {
		return "execute"
	}
	return "dry-run"
}

// Outcome is the terminal state of one occurrence within a run.
type Outcome string

const (
	// OutcomeSent means the action was dispatched (or simulated).
	OutcomeSent Outcome = "sent"

	// OutcomeAlreadySent means the ledger already held the fingerprint.
	OutcomeAlreadySent Outcome = "already_sent"

	// OutcomeFailed means the bridge call or the ledger write failed.
	// The next run retries behind the fingerprint gate.
	OutcomeFailed Outcome = "failed"

	// OutcomeInvalid means the occurrence never reached dispatch:
	// malformed parameters, schema violation, or unresolvable time.
	OutcomeInvalid Outcome = "invalid"
)

// Document is one input text to scan, addressed by its path.
type Document struct {
	Path string
	Text string
}

// Detail is one occurrence's full outcome. Every occurrence found in a
// run appears exactly once, including invalid ones - nothing is silently
// dropped.
type Detail struct {
	Seq         int64      `json:"seq"`
	Document    string     `json:"document"`
	Line        int        `json:"line"`
	Index       int        `json:"index"`
	Kind        string     `json:"kind,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Outcome     Outcome    `json:"outcome"`
	Simulated   bool       `json:"simulated,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Receipt     string     `json:"receipt,omitempty"`
	At          *time.Time `json:"at,omitempty"`
	PastDue     bool       `json:"past_due,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Report summarizes one engine run.
type Report struct {
	RunToken    string   `json:"run_token"`
	Mode        string   `json:"mode"`
	Documents   int      `json:"documents"`
	Sent        int      `json:"sent"`
	AlreadySent int      `json:"already_sent"`
	Failed      int      `json:"failed"`
	Invalid     int      `json:"invalid"`
	Details     []Detail `json:"details"`
}

// add appends a detail and bumps the matching counter.
func (r *Report) add(d Detail) {
	switch d.Outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeAlreadySent:
		r.AlreadySent++
	case OutcomeFailed:
		r.Failed++
	case OutcomeInvalid:
		r.Invalid++
	}
	r.Details = append(r.Details, d)
}
