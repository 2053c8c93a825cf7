// Package tag locates and parses directive tags embedded in text documents.
//
// A directive tag asks the automation engine to perform an external action:
//
//	@reminder(message="Ping Lisa", at="+30m", id="lisa-1")
//	@calendar(message="1:1 with Sam", at="tomorrow 09:30", duration="45m")
//	@imessage(to="+15551234567", message="running late")
//
// The scanner yields raw occurrences in document order; the parser turns a
// raw parameter list into an ordered, typed mapping. Both are pure functions
// of their input - nothing here touches the ledger, the clock, or the
// bridge, which keeps every parse decision reproducible across runs.
//
// ERROR POLICY: every malformed tag is reported as a per-occurrence
// ParseError and skipped. Scanning and parsing never fail a whole document
// because of one bad tag.
package tag
