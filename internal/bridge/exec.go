package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Exit codes an adapter command uses to classify its own failures.
// Anything else maps to CodeUnknown.
const (
	exitPermissionDenied = 3
	exitTargetNotFound   = 4
)

// ExecBridge invokes external adapter commands, one per directive kind.
//
// Protocol: the request is written to the command's stdin as a single JSON
// object; on success the command exits 0 and prints the receipt (created
// item identifier) as the first line of stdout. Failures are signalled by
// exit code: 3 for a denied automation permission, 4 for an unknown
// list/calendar/recipient, anything else is unclassified. Stderr is
// captured into the error message.
//
// The command receives the engine's per-call context, so a timeout kills it.
type ExecBridge struct {
	ReminderCommand []string
	CalendarCommand []string
	MessageCommand  []string
}

// CreateReminder implements Bridge.
func (b *ExecBridge) CreateReminder(ctx context.Context, req ReminderRequest) (string, error) {
	return b.invoke(ctx, "create_reminder", b.ReminderCommand, req)
}

// CreateEvent implements Bridge.
func (b *ExecBridge) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	req.DurationMinutes = int(req.Duration.Minutes())
	return b.invoke(ctx, "create_event", b.CalendarCommand, req)
}

// SendMessage implements Bridge.
func (b *ExecBridge) SendMessage(ctx context.Context, req MessageRequest) (string, error) {
	return b.invoke(ctx, "send_message", b.MessageCommand, req)
}

func (b *ExecBridge) invoke(ctx context.Context, op string, argv []string, payload any) (string, error) {
	if len(argv) == 0 {
		return "", &Error{Code: CodeUnknown, Op: op, Message: "no adapter command configured"}
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Code: CodeUnknown, Op: op, Message: "encode request", Err: err}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("bridge call", "op", op, "command", argv[0])
	runErr := cmd.Run()

	// Context expiry wins over whatever exit status the kill produced.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &Error{Code: CodeTimeout, Op: op, Message: "adapter command timed out", Err: ctxErr}
	}

	if runErr != nil {
		code := CodeUnknown
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			switch exitErr.ExitCode() {
			case exitPermissionDenied:
				code = CodePermissionDenied
			case exitTargetNotFound:
				code = CodeTargetNotFound
			}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		return "", &Error{Code: code, Op: op, Message: msg, Err: runErr}
	}

	receipt, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	if receipt == "" {
		return "", &Error{Code: CodeUnknown, Op: op, Message: "adapter returned no receipt"}
	}
	return receipt, nil
}

// Validate checks that every kind has an adapter command configured.
func (b *ExecBridge) Validate() error {
	var missing []string
	if len(b.ReminderCommand) == 0 {
		missing = append(missing, "reminder")
	}
	if len(b.CalendarCommand) == 0 {
		missing = append(missing, "calendar")
	}
	if len(b.MessageCommand) == 0 {
		missing = append(missing, "imessage")
	}
	if len(missing) > 0 {
		return fmt.Errorf("bridge adapter command not configured for: %s", strings.Join(missing, ", "))
	}
	return nil
}
