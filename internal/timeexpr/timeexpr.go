// Package timeexpr resolves human-friendly time expressions to instants.
//
// Resolution is a pure function of (expression, reference "now"): given the
// same inputs it always produces the same instant, which is what makes runs
// reproducible and dry-run output comparable against execute output. The
// local timezone is taken from the reference instant's location.
//
// Three grammars are recognized, tried in fixed priority order:
//
//	1. Absolute:     "2025-08-16 14:30"   (local time, literal)
//	2. Relative-day: "today 09:00", "tomorrow 09:00"
//	3. Offset:       "+30m", "+2h", "+1d"
//
// A "today HH:MM" that has already passed is NOT advanced to the next day.
// It resolves to the past instant with PastDue set; whether a past-dated
// action is still worth creating is the dispatcher's call, not this
// package's.
package timeexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class records which grammar an expression matched.
type Class int

const (
	ClassAbsolute Class = iota
	ClassRelativeDay
	ClassOffset
)

// String returns the class name for diagnostics.
func (c Class) String() string {
	switch c {
	case ClassAbsolute:
		return "absolute"
	case ClassRelativeDay:
		return "relative-day"
	case ClassOffset:
		return "offset"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Resolved is an absolute instant plus enough metadata for diagnostics.
type Resolved struct {
	At      time.Time
	Class   Class
	PastDue bool   // resolved instant is before the reference "now"
	Expr    string // original expression
}

// UnresolvableError reports an expression matching none of the grammars.
// The offending string is always named.
type UnresolvableError struct {
	Expr   string
	Detail string
}

func (e *UnresolvableError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unresolvable time expression %q: %s", e.Expr, e.Detail)
	}
	return fmt.Sprintf("unresolvable time expression %q", e.Expr)
}

// IsUnresolvable returns true if the error is an UnresolvableError.
func IsUnresolvable(err error) bool {
	var ue *UnresolvableError
	return errors.As(err, &ue)
}

const absoluteLayout = "2006-01-02 15:04"

// Resolve normalizes an expression to an absolute instant relative to now.
//
// Deterministic: Resolve("+2h", now) is always now+2h, and
// Resolve("today 09:00", now) is always 09:00 of now's date in now's
// location, past or not.
func Resolve(expr string, now time.Time) (Resolved, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Resolved{}, &UnresolvableError{Expr: expr, Detail: "empty expression"}
	}

	// 1. Absolute: YYYY-MM-DD HH:MM in local time.
	if at, err := time.ParseInLocation(absoluteLayout, s, now.Location()); err == nil {
		return finish(at, ClassAbsolute, expr, now), nil
	}

	// 2. Relative-day: today/tomorrow HH:MM.
	if day, clock, ok := strings.Cut(s, " "); ok {
		var dayOffset int
		switch strings.ToLower(day) {
		case "today":
			dayOffset = 0
		case "tomorrow":
			dayOffset = 1
		default:
			dayOffset = -1
		}
		if dayOffset >= 0 {
			hour, minute, err := parseClock(strings.TrimSpace(clock))
			if err != nil {
				return Resolved{}, &UnresolvableError{Expr: expr, Detail: err.Error()}
			}
			base := now.AddDate(0, 0, dayOffset)
			at := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())
			return finish(at, ClassRelativeDay, expr, now), nil
		}
	}

	// 3. Offset: +<N>m|h|d.
	if strings.HasPrefix(s, "+") {
		d, err := ParseSpan(s[1:])
		if err != nil {
			return Resolved{}, &UnresolvableError{Expr: expr, Detail: err.Error()}
		}
		return finish(now.Add(d), ClassOffset, expr, now), nil
	}

	return Resolved{}, &UnresolvableError{Expr: expr}
}

func finish(at time.Time, class Class, expr string, now time.Time) Resolved {
	return Resolved{
		At:      at,
		Class:   class,
		PastDue: at.Before(now),
		Expr:    expr,
	}
}

// parseClock parses HH:MM with a 24-hour clock.
func parseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// ParseSpan parses the shared unit grammar <N>m|h|d into a span.
//
// Used both for offset expressions ("+90m" minus the sign) and for
// calendar event durations ("30m", "1h", "90m").
func ParseSpan(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("expected <N>m, <N>h, or <N>d, got %q", s)
	}
	unit := s[len(s)-1]
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count in span %q", s)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit %q in span %q (want m, h, or d)", string(unit), s)
	}
}
