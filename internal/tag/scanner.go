package tag

import (
	"fmt"
	"strings"
)

// Scan locates directive tags in document text.
//
// A tag is a marker token (@reminder, @calendar, @imessage) followed
// immediately by a balanced-parenthesis parameter list on the same logical
// line. Parentheses inside double-quoted parameter values do not count
// toward balancing. The whole document is scanned uniformly - tags inside
// fenced code blocks are found like any other (intentional simplification,
// the source corpus treats documents as flat text).
//
// Malformed candidates (unknown directive kind, unbalanced parentheses)
// produce a ParseError for that occurrence and scanning continues. The
// returned slices are in document order: line order, then left-to-right.
func Scan(document, text string) ([]RawTag, []*ParseError) {
	var tags []RawTag
	var errs []*ParseError

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lineNo := i + 1
		index := 0 // occurrence index within this line, across all kinds

		pos := 0
		for pos < len(line) {
			at := strings.IndexByte(line[pos:], '@')
			if at < 0 {
				break
			}
			at += pos

			// Marker must start a token: beginning of line or after a
			// non-identifier character. Avoids matching email addresses.
			if at > 0 && isIdentByte(line[at-1]) {
				pos = at + 1
				continue
			}

			ident, after := readIdent(line, at+1)
			if ident == "" || after >= len(line) || line[after] != '(' {
				pos = at + 1
				continue
			}

			kind := Kind(ident)
			if !KnownKinds[kind] {
				errs = append(errs, &ParseError{
					Document: document,
					Line:     lineNo,
					Message:  fmt.Sprintf("unknown directive kind %q", "@"+ident),
				})
				pos = after + 1
				continue
			}

			raw, end, ok := readBalanced(line, after)
			if !ok {
				errs = append(errs, &ParseError{
					Document: document,
					Line:     lineNo,
					Message:  fmt.Sprintf("unbalanced parentheses in @%s tag", ident),
				})
				// Nothing else on this line can be parsed reliably.
				pos = len(line)
				continue
			}

			tags = append(tags, RawTag{
				Kind:      kind,
				Document:  document,
				Line:      lineNo,
				Index:     index,
				RawParams: raw,
			})
			index++
			pos = end
		}
	}

	return tags, errs
}

// readIdent reads a lowercase identifier starting at pos.
// Returns the identifier and the position after it.
func readIdent(line string, pos int) (string, int) {
	start := pos
	for pos < len(line) && isIdentByte(line[pos]) {
		pos++
	}
	return line[start:pos], pos
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// readBalanced consumes a parenthesized section starting at the opening
// paren. Double-quoted strings are opaque: parentheses inside them are
// ignored and backslash escapes a quote. Returns the inner text, the
// position just past the closing paren, and whether balancing succeeded
// before the end of the line.
func readBalanced(line string, open int) (inner string, end int, ok bool) {
	depth := 0
	inString := false
	for i := open; i < len(line); i++ {
		c := line[i]
		if inString {
			switch c {
			case '\\':
				i++ // skip escaped character
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return line[open+1 : i], i + 1, true
			}
		}
	}
	return "", len(line), false
}
