package bridge

import (
	"context"
	"fmt"
	"sync"
)

// Call records one bridge invocation made against a Recorder.
type Call struct {
	Op       string
	Reminder *ReminderRequest
	Event    *EventRequest
	Message  *MessageRequest
}

// Recorder is a Bridge test double that records every call and returns
// scripted results. The zero value succeeds every call with generated
// receipts ("receipt-1", "receipt-2", ...).
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex, although the engine only ever calls sequentially.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	n     int

	// FailWith, when non-nil, is returned by every call instead of a
	// receipt. Use a classified *Error to exercise failure paths.
	FailWith error
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns the number of bridge calls made.
func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// CreateReminder implements Bridge.
func (r *Recorder) CreateReminder(ctx context.Context, req ReminderRequest) (string, error) {
	return r.record(ctx, Call{Op: "create_reminder", Reminder: &req})
}

// CreateEvent implements Bridge.
func (r *Recorder) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	return r.record(ctx, Call{Op: "create_event", Event: &req})
}

// SendMessage implements Bridge.
func (r *Recorder) SendMessage(ctx context.Context, req MessageRequest) (string, error) {
	return r.record(ctx, Call{Op: "send_message", Message: &req})
}

func (r *Recorder) record(ctx context.Context, c Call) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Code: CodeTimeout, Op: c.Op, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if r.FailWith != nil {
		return "", r.FailWith
	}
	r.n++
	return fmt.Sprintf("receipt-%d", r.n), nil
}
