// Package fingerprint derives a stable identity for each directive
// occurrence, used to detect prior execution across any number of re-scans.
//
// Identity comes in two flavors:
//
//   - Explicit: when the author supplies id="...", the fingerprint covers
//     (document, kind, id) only. Editing the tag's message or time keeps the
//     same fingerprint - "the same reminder, just rescheduled".
//   - Content-addressed: without an id, the fingerprint hashes (document,
//     kind, line, occurrence index, canonicalized parameters). Editing the
//     tag body produces a new directive that will fire again; reformatting
//     the surrounding text does not, as long as the tag stays on its line
//     with the same body.
//
// Canonicalization follows RFC 8785 canonical JSON: object keys sorted by
// UTF-16 code units, NFC-normalized strings, no HTML escaping, no floats,
// no null. Hashes are SHA-256 with a domain-separation prefix so the two
// identity flavors (and any future scheme) can never collide.
package fingerprint
