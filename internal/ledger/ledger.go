// Package ledger is the sole idempotency record of the engine: a durable
// mapping from directive fingerprint to firing receipt.
//
// Once a fingerprint is marked fired it is permanently considered fired.
// The engine never infers state from the external bridge's own records, and
// never removes entries on its own - Reset is an explicit, logged, operator
// action.
//
// DURABILITY: the file is loaded fully at open and rewritten via
// write-to-temp-then-rename after every successful mark, so a crash loses
// at most the one in-flight entry. The format is indented JSON keyed by
// fingerprint, deliberately human-inspectable.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry records one fired directive.
type Entry struct {
	Kind     string    `json:"kind"`
	Document string    `json:"document"`
	Line     int       `json:"line"`
	FiredAt  time.Time `json:"fired_at"`
	Receipt  string    `json:"receipt,omitempty"` // opaque bridge receipt
}

// PersistError reports a failed ledger write. When this happens after a
// successful bridge call the external action exists but the run reports the
// occurrence as failed - the documented at-least-once trade-off. Callers
// surface it loudly, never swallow it.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist ledger %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError returns true if the error is a ledger persist failure.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// Ledger is the in-memory view of the ledger file.
//
// Not safe for concurrent use; the orchestrator owns it exclusively for the
// duration of a run, guarded by the advisory Lock.
type Ledger struct {
	path    string
	entries map[string]Entry
}

// Open loads the ledger at path, creating an empty one if the file does
// not exist. The parent directory is created as needed.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return l, nil
}

// Path returns the backing file path.
func (l *Ledger) Path() string { return l.path }

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// IsFired reports whether the fingerprint has already been executed.
func (l *Ledger) IsFired(fp string) bool {
	_, ok := l.entries[fp]
	return ok
}

// Entry returns the ledger entry for a fingerprint, if present.
func (l *Ledger) Entry(fp string) (Entry, bool) {
	e, ok := l.entries[fp]
	return e, ok
}

// MarkFired records a firing and persists the ledger durably before
// returning. If persistence fails the in-memory entry is rolled back and a
// PersistError is returned; the caller must report the occurrence as failed
// even though the external action may have succeeded.
func (l *Ledger) MarkFired(fp string, e Entry) error {
	prev, had := l.entries[fp]
	l.entries[fp] = e
	if err := l.persist(); err != nil {
		if had {
			l.entries[fp] = prev
		} else {
			delete(l.entries, fp)
		}
		return err
	}
	return nil
}

// Reset removes one entry so a future run re-fires the directive.
// Returns whether the fingerprint was present. Explicit operator action
// only - nothing in the automated flow calls this.
func (l *Ledger) Reset(fp string) (bool, error) {
	e, ok := l.entries[fp]
	if !ok {
		return false, nil
	}
	delete(l.entries, fp)
	if err := l.persist(); err != nil {
		l.entries[fp] = e
		return false, err
	}
	return true, nil
}

// Fingerprints returns all fingerprints sorted lexically, for stable
// listings.
func (l *Ledger) Fingerprints() []string {
	fps := make([]string, 0, len(l.entries))
	for fp := range l.entries {
		fps = append(fps, fp)
	}
	sort.Strings(fps)
	return fps
}

// persist writes the full mapping with write-to-temp-then-rename.
// The temp file lives in the same directory so the rename is atomic on the
// same filesystem, and it is fsynced before the rename.
func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return &PersistError{Path: l.path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistError{Path: l.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return &PersistError{Path: l.path, Err: err}
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpName)
		return &PersistError{Path: l.path, Err: werr}
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return &PersistError{Path: l.path, Err: err}
	}
	return nil
}
