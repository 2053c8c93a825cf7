// Package schema declares the per-kind directive parameter schemas and
// validates parsed occurrences against them.
//
// The schemas themselves live in an embedded CUE document (schemas.cue) and
// are compiled once at startup, so evolving a directive's field table is a
// data change, not a code change. Validation is strict where the contract
// demands it (missing required key fails closed) and forgiving where
// forward compatibility matters (unknown keys are preserved and flagged,
// never rejected).
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/rkellner/notefire/internal/tag"
)

//go:embed schemas.cue
var schemasCUE []byte

// Field is one declared parameter.
type Field struct {
	Name string
	Type string // string|int|bool|time|duration|priority|recipient
}

// Directive is the compiled field schema for one directive kind.
type Directive struct {
	Kind     tag.Kind
	Required []Field
	Optional []Field
}

// Set holds the compiled schemas for all directive kinds.
type Set struct {
	byKind map[tag.Kind]Directive
}

// For returns the schema for a kind.
func (s *Set) For(kind tag.Kind) (Directive, bool) {
	d, ok := s.byKind[kind]
	return d, ok
}

// CompileError reports a problem in the schema document itself.
// This is a build-time defect, not a user input error.
type CompileError struct {
	Path    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Path, e.Message)
}

// Load compiles the embedded schema document.
func Load() (*Set, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(schemasCUE)
	if err := value.Err(); err != nil {
		return nil, &CompileError{Path: "schemas.cue", Message: err.Error()}
	}
	return compile(value)
}

func compile(value cue.Value) (*Set, error) {
	set := &Set{byKind: make(map[tag.Kind]Directive)}

	directives := value.LookupPath(cue.ParsePath("directive"))
	if !directives.Exists() {
		return nil, &CompileError{Path: "directive", Message: "no directive schemas declared"}
	}

	iter, err := directives.Fields()
	if err != nil {
		return nil, &CompileError{Path: "directive", Message: err.Error()}
	}
	for iter.Next() {
		kind := tag.Kind(iter.Selector().Unquoted())
		if !tag.KnownKinds[kind] {
			return nil, &CompileError{
				Path:    "directive." + string(kind),
				Message: "schema declared for unknown directive kind",
			}
		}

		d := Directive{Kind: kind}
		d.Required, err = compileFields(iter.Value(), "required")
		if err != nil {
			return nil, err
		}
		if len(d.Required) == 0 {
			return nil, &CompileError{
				Path:    "directive." + string(kind),
				Message: "at least one required field is required",
			}
		}
		d.Optional, err = compileFields(iter.Value(), "optional")
		if err != nil {
			return nil, err
		}

		set.byKind[kind] = d
	}

	if len(set.byKind) != len(tag.KnownKinds) {
		return nil, &CompileError{
			Path:    "directive",
			Message: fmt.Sprintf("expected schemas for %d kinds, got %d", len(tag.KnownKinds), len(set.byKind)),
		}
	}
	return set, nil
}

// compileFields reads a required/optional block into declaration order.
func compileFields(v cue.Value, section string) ([]Field, error) {
	block := v.LookupPath(cue.ParsePath(section))
	if !block.Exists() {
		return nil, nil
	}

	var fields []Field
	iter, err := block.Fields()
	if err != nil {
		return nil, &CompileError{Path: section, Message: err.Error()}
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		typ, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Path:    fmt.Sprintf("%s.%s", section, name),
				Message: fmt.Sprintf("field type must be a string: %v", err),
			}
		}
		if !validFieldTypes[typ] {
			return nil, &CompileError{
				Path:    fmt.Sprintf("%s.%s", section, name),
				Message: fmt.Sprintf("unknown field type %q", typ),
			}
		}
		fields = append(fields, Field{Name: name, Type: typ})
	}
	return fields, nil
}

var validFieldTypes = map[string]bool{
	"string":    true,
	"int":       true,
	"bool":      true,
	"time":      true,
	"duration":  true,
	"priority":  true,
	"recipient": true,
}
