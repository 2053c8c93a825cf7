package schema

import (
	"fmt"
	"strings"

	"github.com/rkellner/notefire/internal/tag"
	"github.com/rkellner/notefire/internal/timeexpr"
)

// Result is the outcome of validating one occurrence.
//
// Missing and Problems make the occurrence invalid: it is excluded from
// dispatch, reported, never silently dropped. Unknown and Warnings are
// diagnostics only and do not block dispatch.
type Result struct {
	Missing  []string // required keys absent (fail closed)
	Problems []string // type mismatches, malformed shapes
	Unknown  []string // keys not in the schema, preserved but unused
	Warnings []string // low-confidence values
}

// Valid reports whether the occurrence may be dispatched.
func (r *Result) Valid() bool {
	return len(r.Missing) == 0 && len(r.Problems) == 0
}

// Reason renders the blocking findings as one line for reports.
func (r *Result) Reason() string {
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing required: "+strings.Join(r.Missing, ", "))
	}
	parts = append(parts, r.Problems...)
	return strings.Join(parts, "; ")
}

// Validate checks an occurrence's parameters against its kind's schema.
func (s *Set) Validate(occ *tag.Occurrence) *Result {
	res := &Result{}

	d, ok := s.byKind[occ.Kind]
	if !ok {
		res.Problems = append(res.Problems, fmt.Sprintf("no schema for kind %q", occ.Kind))
		return res
	}

	declared := make(map[string]Field, len(d.Required)+len(d.Optional))
	for _, f := range d.Required {
		declared[f.Name] = f
		if _, present := occ.Params.Get(f.Name); !present {
			res.Missing = append(res.Missing, f.Name)
		}
	}
	for _, f := range d.Optional {
		declared[f.Name] = f
	}

	for _, key := range occ.Params.Keys() {
		f, ok := declared[key]
		if !ok {
			res.Unknown = append(res.Unknown, key)
			continue
		}
		v, _ := occ.Params.Get(key)
		checkField(res, f, v)
	}

	return res
}

// checkField applies the per-type rules to one present parameter.
func checkField(res *Result, f Field, v tag.Value) {
	switch f.Type {
	case "string", "time", "duration", "recipient":
		if v.Type != tag.TypeString {
			res.Problems = append(res.Problems, fmt.Sprintf("%s must be a quoted string", f.Name))
			return
		}
	case "int", "priority":
		if v.Type != tag.TypeInt {
			res.Problems = append(res.Problems, fmt.Sprintf("%s must be an integer", f.Name))
			return
		}
	case "bool":
		if v.Type != tag.TypeBool {
			res.Problems = append(res.Problems, fmt.Sprintf("%s must be true or false", f.Name))
			return
		}
	}

	switch f.Type {
	case "duration":
		if _, err := timeexpr.ParseSpan(v.Str); err != nil {
			res.Problems = append(res.Problems, fmt.Sprintf("%s: %v", f.Name, err))
		}
	case "priority":
		// Any integer is accepted; only 1/5/9 are canonical.
		if v.Int != 1 && v.Int != 5 && v.Int != 9 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s=%d is not a canonical priority (1, 5, or 9)", f.Name, v.Int))
		}
	case "recipient":
		if !recipientShaped(v.Str) {
			res.Problems = append(res.Problems,
				fmt.Sprintf("%s=%q is neither a phone number nor an email address", f.Name, v.Str))
		}
	}
}

// recipientShaped accepts E.164-like phone numbers and email-shaped
// strings. Shape check only - deliverability is the bridge's problem.
func recipientShaped(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "+") {
		digits := s[1:]
		if len(digits) < 7 || len(digits) > 15 {
			return false
		}
		for i := 0; i < len(digits); i++ {
			if digits[i] < '0' || digits[i] > '9' {
				return false
			}
		}
		return true
	}
	local, domain, ok := strings.Cut(s, "@")
	return ok && local != "" && domain != "" && strings.Contains(domain, ".")
}
