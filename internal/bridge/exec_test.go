package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecBridge_SuccessReturnsFirstStdoutLine(t *testing.T) {
	b := &ExecBridge{
		ReminderCommand: []string{"sh", "-c", `cat >/dev/null; echo rem-42; echo noise`},
	}
	receipt, err := b.CreateReminder(context.Background(), ReminderRequest{
		Message: "Ping Lisa",
		At:      time.Now().Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "rem-42", receipt)
}

func TestExecBridge_PermissionDeniedExitCode(t *testing.T) {
	b := &ExecBridge{
		ReminderCommand: []string{"sh", "-c", `echo "automation not permitted" >&2; exit 3`},
	}
	_, err := b.CreateReminder(context.Background(), ReminderRequest{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))
	assert.Contains(t, err.Error(), "automation not permitted")
}

func TestExecBridge_TargetNotFoundExitCode(t *testing.T) {
	b := &ExecBridge{
		CalendarCommand: []string{"sh", "-c", `exit 4`},
	}
	_, err := b.CreateEvent(context.Background(), EventRequest{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, CodeTargetNotFound, CodeOf(err))
}

func TestExecBridge_UnclassifiedExit(t *testing.T) {
	b := &ExecBridge{
		MessageCommand: []string{"sh", "-c", `exit 1`},
	}
	_, err := b.SendMessage(context.Background(), MessageRequest{To: "+15551234567", Message: "x"})
	require.Error(t, err)
	assert.Equal(t, CodeUnknown, CodeOf(err))
}

func TestExecBridge_Timeout(t *testing.T) {
	b := &ExecBridge{
		ReminderCommand: []string{"sleep", "5"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.CreateReminder(ctx, ReminderRequest{Message: "x"})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestExecBridge_NoCommandConfigured(t *testing.T) {
	b := &ExecBridge{}
	_, err := b.CreateReminder(context.Background(), ReminderRequest{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, CodeUnknown, CodeOf(err))

	err = b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reminder")
	assert.Contains(t, err.Error(), "imessage")
}

func TestExecBridge_EmptyReceiptIsError(t *testing.T) {
	b := &ExecBridge{
		ReminderCommand: []string{"sh", "-c", `cat >/dev/null`},
	}
	_, err := b.CreateReminder(context.Background(), ReminderRequest{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no receipt")
}

func TestExecBridge_EventDurationOnWire(t *testing.T) {
	// The adapter sees duration_minutes in the JSON payload.
	b := &ExecBridge{
		CalendarCommand: []string{"sh", "-c", `grep -q '"duration_minutes":45' && echo evt-1 || exit 1`},
	}
	receipt, err := b.CreateEvent(context.Background(), EventRequest{
		Message:  "standup",
		Duration: 45 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", receipt)
}

func TestRecorder_RecordsAndScripts(t *testing.T) {
	r := &Recorder{}
	receipt, err := r.CreateReminder(context.Background(), ReminderRequest{Message: "a"})
	require.NoError(t, err)
	assert.Equal(t, "receipt-1", receipt)

	r2 := &Recorder{FailWith: &Error{Code: CodePermissionDenied, Op: "send_message"}}
	_, err = r2.SendMessage(context.Background(), MessageRequest{To: "x", Message: "y"})
	require.Error(t, err)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))
	assert.Equal(t, 1, r2.CallCount())
}
