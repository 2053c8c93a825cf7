package tag

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType discriminates the parsed type of a parameter value.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeBool
)

// Value is one typed parameter value.
//
// Raw preserves the original token for diagnostics and stable
// re-serialization, independent of the decoded form.
type Value struct {
	Type ValueType
	Str  string
	Int  int64
	Bool bool
	Raw  string
}

// String returns the decoded value rendered as a string.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Params is an ordered parameter mapping.
//
// Insertion order is preserved so diagnostics and re-serialization are
// stable across runs. Lookup is by key; duplicate keys are a parse error.
type Params struct {
	keys   []string
	values map[string]Value
}

// Get returns the value for key and whether it is present.
func (p *Params) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns parameter names in insertion order.
// The returned slice is a copy.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.keys)
}

// ParseParams parses a raw parameter string into an ordered mapping.
//
// Grammar: comma-separated key=value pairs where value is a double-quoted
// string (backslash escapes \" \\ \n \t), a decimal integer, or a bare
// true/false. Unknown keys are preserved - schema validation decides what
// to do with them later, never the parser.
func ParseParams(raw string) (*Params, error) {
	p := &Params{values: make(map[string]Value)}

	s := strings.TrimSpace(raw)
	if s == "" {
		return p, nil
	}

	pos := 0
	for {
		key, next, err := parseKey(s, pos)
		if err != nil {
			return nil, err
		}
		if _, dup := p.values[key]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", key)
		}

		val, next, err := parseValue(s, next)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}

		p.keys = append(p.keys, key)
		p.values[key] = val

		pos = skipSpaces(s, next)
		if pos >= len(s) {
			return p, nil
		}
		if s[pos] != ',' {
			return nil, fmt.Errorf("expected ',' after parameter %q, got %q", key, s[pos])
		}
		pos = skipSpaces(s, pos+1)
		if pos >= len(s) {
			return nil, fmt.Errorf("trailing comma after parameter %q", key)
		}
	}
}

// parseKey reads an identifier followed by '='.
func parseKey(s string, pos int) (string, int, error) {
	pos = skipSpaces(s, pos)
	start := pos
	for pos < len(s) && isIdentByte(s[pos]) {
		pos++
	}
	if pos == start {
		return "", 0, fmt.Errorf("expected parameter name at offset %d", pos)
	}
	key := s[start:pos]
	pos = skipSpaces(s, pos)
	if pos >= len(s) || s[pos] != '=' {
		return "", 0, fmt.Errorf("expected '=' after %q", key)
	}
	return key, pos + 1, nil
}

// parseValue reads a quoted string, integer, or boolean token.
func parseValue(s string, pos int) (Value, int, error) {
	pos = skipSpaces(s, pos)
	if pos >= len(s) {
		return Value{}, 0, fmt.Errorf("missing value")
	}

	if s[pos] == '"' {
		return parseQuoted(s, pos)
	}

	// Bare token: read up to comma or end.
	start := pos
	for pos < len(s) && s[pos] != ',' {
		pos++
	}
	token := strings.TrimSpace(s[start:pos])
	switch token {
	case "":
		return Value{}, 0, fmt.Errorf("missing value")
	case "true":
		return Value{Type: TypeBool, Bool: true, Raw: token}, pos, nil
	case "false":
		return Value{Type: TypeBool, Bool: false, Raw: token}, pos, nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return Value{}, 0, fmt.Errorf("invalid value %q: expected quoted string, integer, or true/false", token)
	}
	return Value{Type: TypeInt, Int: n, Raw: token}, pos, nil
}

// parseQuoted reads a double-quoted string starting at the opening quote.
func parseQuoted(s string, pos int) (Value, int, error) {
	start := pos
	pos++ // opening quote
	var b strings.Builder
	for pos < len(s) {
		c := s[pos]
		switch c {
		case '\\':
			if pos+1 >= len(s) {
				return Value{}, 0, fmt.Errorf("unterminated escape in string")
			}
			pos++
			switch s[pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return Value{}, 0, fmt.Errorf("unsupported escape \\%c", s[pos])
			}
			pos++
		case '"':
			pos++
			return Value{Type: TypeString, Str: b.String(), Raw: s[start:pos]}, pos, nil
		default:
			b.WriteByte(c)
			pos++
		}
	}
	return Value{}, 0, fmt.Errorf("unterminated string")
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	return pos
}
