package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	return l
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	l := tempLedger(t)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.IsFired("anything"))
}

func TestMarkFired_PersistsBeforeReturning(t *testing.T) {
	l := tempLedger(t)
	entry := Entry{
		Kind:     "reminder",
		Document: "notes.md",
		Line:     3,
		FiredAt:  time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		Receipt:  "rem-123",
	}
	require.NoError(t, l.MarkFired("fp-1", entry))

	// A fresh load from disk must already see the entry.
	reloaded, err := Open(l.Path())
	require.NoError(t, err)
	assert.True(t, reloaded.IsFired("fp-1"))
	got, ok := reloaded.Entry("fp-1")
	require.True(t, ok)
	assert.Equal(t, "rem-123", got.Receipt)
	assert.True(t, entry.FiredAt.Equal(got.FiredAt))
}

func TestMarkFired_FileIsHumanInspectable(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.MarkFired("fp-1", Entry{Kind: "reminder", Document: "n.md", Line: 1}))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	// Indented JSON keyed by fingerprint.
	var m map[string]Entry
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "fp-1")
	assert.Contains(t, string(data), "\n  ")
}

func TestMarkFired_PersistFailureRollsBack(t *testing.T) {
	// Point the ledger at a path whose parent is a file, so MkdirAll fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	l := &Ledger{path: filepath.Join(blocker, "ledger.json"), entries: make(map[string]Entry)}
	err := l.MarkFired("fp-1", Entry{Kind: "reminder"})
	require.Error(t, err)
	assert.True(t, IsPersistError(err))

	// The in-memory state must not claim the firing happened.
	assert.False(t, l.IsFired("fp-1"))
}

func TestReset_RemovesEntryAndPersists(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.MarkFired("fp-1", Entry{Kind: "reminder"}))

	removed, err := l.Reset("fp-1")
	require.NoError(t, err)
	assert.True(t, removed)

	reloaded, err := Open(l.Path())
	require.NoError(t, err)
	assert.False(t, reloaded.IsFired("fp-1"))
}

func TestReset_MissingFingerprint(t *testing.T) {
	l := tempLedger(t)
	removed, err := l.Reset("nope")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFingerprints_Sorted(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.MarkFired("c", Entry{}))
	require.NoError(t, l.MarkFired("a", Entry{}))
	require.NoError(t, l.MarkFired("b", Entry{}))
	assert.Equal(t, []string{"a", "b", "c"}, l.Fingerprints())
}

func TestAcquireLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	lock, err := AcquireLock(path)
	require.NoError(t, err)

	// Second acquisition by this (live) process must fail.
	_, err = AcquireLock(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	require.NoError(t, lock.Release())

	// After release it is free again.
	lock2, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestAcquireLock_StaleLockReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	// A lock file with a pid that cannot exist is stale.
	require.NoError(t, os.WriteFile(path+".lock", []byte("999999999\n"), 0o644))

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireLock_GarbageLockReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path+".lock", []byte("not a pid"), 0o644))

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}
