package tag

import (
	"errors"
	"fmt"
)

// ParseError reports a malformed tag at a specific document location.
//
// Parse errors are per-occurrence and non-fatal: the scanner reports them
// and keeps going. One bad tag never aborts the rest of the document.
type ParseError struct {
	Document string
	Line     int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("%s:%d: %s", e.Document, e.Line, e.Message)
	}
	return e.Message
}

// IsParseError returns true if the error is a tag parse error.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
