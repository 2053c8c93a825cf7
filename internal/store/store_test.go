package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestRunLifecycle(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	started := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)

	require.NoError(t, s.BeginRun(ctx, "run-1", "execute", started, 2))

	// Duplicate begin is ignored.
	require.NoError(t, s.BeginRun(ctx, "run-1", "execute", started, 2))

	require.NoError(t, s.FinishRun(ctx, "run-1", started.Add(time.Second), 3, 1, 0, 1))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "run-1", r.Token)
	assert.Equal(t, "execute", r.Mode)
	assert.Equal(t, 2, r.Documents)
	assert.Equal(t, 3, r.Sent)
	assert.Equal(t, 1, r.AlreadySent)
	assert.Equal(t, 1, r.Invalid)
	require.NotNil(t, r.FinishedAt)
	assert.True(t, r.FinishedAt.After(r.StartedAt))
}

func TestRecordDispatch_IdempotentOnSeq(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "execute", time.Now(), 1))

	d := DispatchRecord{
		RunToken:    "run-1",
		Seq:         1,
		Fingerprint: "fp-1",
		Kind:        "reminder",
		Document:    "n.md",
		Line:        3,
		Outcome:     "sent",
		Receipt:     "rem-1",
	}
	require.NoError(t, s.RecordDispatch(ctx, d))
	require.NoError(t, s.RecordDispatch(ctx, d)) // duplicate seq ignored

	got, err := s.ReadDispatches(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rem-1", got[0].Receipt)
}

func TestReadDispatches_OrderedBySeq(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "dry-run", time.Now(), 1))

	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, s.RecordDispatch(ctx, DispatchRecord{
			RunToken: "run-1", Seq: seq, Fingerprint: "fp", Kind: "reminder",
			Document: "n.md", Line: int(seq), Outcome: "sent", Simulated: true,
		}))
	}

	got, err := s.ReadDispatches(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
	assert.True(t, got[0].Simulated)
}

func TestFingerprintHistory_AcrossRuns(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "execute", time.Now(), 1))
	require.NoError(t, s.BeginRun(ctx, "run-2", "execute", time.Now(), 1))

	require.NoError(t, s.RecordDispatch(ctx, DispatchRecord{
		RunToken: "run-1", Seq: 1, Fingerprint: "fp-a", Kind: "reminder",
		Document: "n.md", Line: 1, Outcome: "sent", Receipt: "r-1",
	}))
	require.NoError(t, s.RecordDispatch(ctx, DispatchRecord{
		RunToken: "run-2", Seq: 1, Fingerprint: "fp-a", Kind: "reminder",
		Document: "n.md", Line: 1, Outcome: "already_sent",
	}))
	require.NoError(t, s.RecordDispatch(ctx, DispatchRecord{
		RunToken: "run-2", Seq: 2, Fingerprint: "fp-b", Kind: "imessage",
		Document: "n.md", Line: 2, Outcome: "failed", Reason: "TIMEOUT",
	}))

	hist, err := s.FingerprintHistory(ctx, "fp-a")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "sent", hist[0].Outcome)
	assert.Equal(t, "already_sent", hist[1].Outcome)
}

func TestListRuns_EmptyIsEmptySlice(t *testing.T) {
	s := tempStore(t)
	runs, err := s.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
