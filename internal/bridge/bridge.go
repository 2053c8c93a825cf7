// Package bridge defines the contract with the external automation
// capability that actually creates reminders, calendar events, and sends
// messages on the user's behalf.
//
// The bridge is an opaque collaborator: given a validated request it either
// durably performs the action and returns a receipt, or it fails with a
// classified error. Nothing here owns idempotency - that belongs to the
// ledger - and nothing here retries. A failed call is reported and the next
// engine run tries again behind the fingerprint gate.
package bridge

import (
	"context"
	"time"
)

// ReminderRequest asks for a reminders-app entry.
type ReminderRequest struct {
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
	List     string    `json:"list,omitempty"`
	Note     string    `json:"note,omitempty"`
	Priority int       `json:"priority,omitempty"` // 1=high, 5=medium, 9=low
	Flagged  bool      `json:"flagged,omitempty"`
}

// EventRequest asks for a calendar event.
type EventRequest struct {
	Message  string        `json:"message"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"-"`
	Calendar string        `json:"calendar,omitempty"`
	Location string        `json:"location,omitempty"`
	Note     string        `json:"note,omitempty"`

	// DurationMinutes is the wire form of Duration.
	DurationMinutes int `json:"duration_minutes"`
}

// MessageRequest asks for an outgoing message. Unlike reminders and events
// a sent message cannot be deleted, which is why the dispatcher demands a
// separate confirmation before ever building one of these in execute mode.
type MessageRequest struct {
	To      string `json:"to"` // E.164-like phone number or email-shaped string
	Message string `json:"message"`
}

// Bridge is the external automation capability.
//
// Each call returns an opaque receipt (for example the created item's
// identifier) or a classified *Error. Implementations must honor context
// cancellation and deadlines: the engine bounds every call with a timeout.
type Bridge interface {
	CreateReminder(ctx context.Context, req ReminderRequest) (receipt string, err error)
	CreateEvent(ctx context.Context, req EventRequest) (receipt string, err error)
	SendMessage(ctx context.Context, req MessageRequest) (receipt string, err error)
}
