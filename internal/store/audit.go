package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one engine run.
type RunRecord struct {
	Token       string
	Mode        string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Documents   int
	Sent        int
	AlreadySent int
	Failed      int
	Invalid     int
}

// DispatchRecord is one per-occurrence outcome within a run.
type DispatchRecord struct {
	RunToken    string
	Seq         int64
	Fingerprint string
	Kind        string
	Document    string
	Line        int
	Outcome     string
	Simulated   bool
	Reason      string
	Receipt     string
}

// BeginRun inserts the run row at start of processing.
// Idempotent on token: a duplicate begin is silently ignored.
func (s *Store) BeginRun(ctx context.Context, token, mode string, startedAt time.Time, documents int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, mode, started_at, documents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, mode, startedAt.UTC().Format(time.RFC3339Nano), documents)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordDispatch appends one dispatch outcome.
// Uses ON CONFLICT DO NOTHING on (run_token, seq) for idempotency.
func (s *Store) RecordDispatch(ctx context.Context, d DispatchRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches
		(run_token, seq, fingerprint, kind, document, line, outcome, simulated, reason, receipt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_token, seq) DO NOTHING
	`,
		d.RunToken,
		d.Seq,
		d.Fingerprint,
		d.Kind,
		d.Document,
		d.Line,
		d.Outcome,
		boolToInt(d.Simulated),
		d.Reason,
		d.Receipt,
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and final counts on the run row.
func (s *Store) FinishRun(ctx context.Context, token string, finishedAt time.Time, sent, alreadySent, failed, invalid int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, sent = ?, already_sent = ?, failed = ?, invalid = ?
		WHERE token = ?
	`, finishedAt.UTC().Format(time.RFC3339Nano), sent, alreadySent, failed, invalid, token)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
// UUIDv7 tokens are time-sortable, so token order is creation order.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, mode, started_at, finished_at, documents, sent, already_sent, failed, invalid
		FROM runs
		ORDER BY token DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}

// ReadDispatches returns every dispatch of a run in logical clock order.
func (s *Store) ReadDispatches(ctx context.Context, runToken string) ([]DispatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, seq, fingerprint, kind, document, line, outcome, simulated, reason, receipt
		FROM dispatches
		WHERE run_token = ?
		ORDER BY seq ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	var out []DispatchRecord
	for rows.Next() {
		var d DispatchRecord
		var simulated int
		if err := rows.Scan(&d.RunToken, &d.Seq, &d.Fingerprint, &d.Kind, &d.Document,
			&d.Line, &d.Outcome, &simulated, &d.Reason, &d.Receipt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.Simulated = simulated != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	if out == nil {
		out = []DispatchRecord{}
	}
	return out, nil
}

// FingerprintHistory returns every recorded dispatch of one fingerprint
// across all runs, oldest first.
func (s *Store) FingerprintHistory(ctx context.Context, fp string) ([]DispatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, seq, fingerprint, kind, document, line, outcome, simulated, reason, receipt
		FROM dispatches
		WHERE fingerprint = ?
		ORDER BY run_token ASC, seq ASC
	`, fp)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint history: %w", err)
	}
	defer rows.Close()

	var out []DispatchRecord
	for rows.Next() {
		var d DispatchRecord
		var simulated int
		if err := rows.Scan(&d.RunToken, &d.Seq, &d.Fingerprint, &d.Kind, &d.Document,
			&d.Line, &d.Outcome, &simulated, &d.Reason, &d.Receipt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.Simulated = simulated != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprint history: %w", err)
	}
	if out == nil {
		out = []DispatchRecord{}
	}
	return out, nil
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var r RunRecord
	var started string
	var finished sql.NullString
	if err := rows.Scan(&r.Token, &r.Mode, &started, &finished,
		&r.Documents, &r.Sent, &r.AlreadySent, &r.Failed, &r.Invalid); err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	r.StartedAt = startedAt

	if finished.Valid {
		finishedAt, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return RunRecord{}, fmt.Errorf("parse finished_at: %w", err)
		}
		r.FinishedAt = &finishedAt
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
