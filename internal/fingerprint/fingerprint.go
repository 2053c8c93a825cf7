package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rkellner/notefire/internal/tag"
)

// Domain prefixes for content-addressed identity.
// The version suffix enables future algorithm migration; the separate
// explicit-id domain guarantees the two identity flavors never collide.
const (
	DomainDirective   = "notefire/directive/v1"
	DomainDirectiveID = "notefire/directive-id/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Compute derives the fingerprint for a directive occurrence.
//
// Pure and deterministic: re-scanning an unmodified document yields the
// same fingerprint for every occurrence, any number of times. Whitespace
// and formatting around an unchanged tag body do not participate.
//
// With a StableID the fingerprint covers (document, kind, id) only, so the
// author can edit message/at freely without re-firing. Without one, the
// canonicalized parameters plus the tag's position (line, occurrence index
// within the line) identify the directive, and an edited body is a new
// directive that is permitted to fire again.
func Compute(occ *tag.Occurrence) (string, error) {
	if occ.StableID != "" {
		obj := Object{
			"document": String(occ.Document),
			"kind":     String(occ.Kind),
			"id":       String(occ.StableID),
		}
		canonical, err := MarshalCanonical(obj)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s:%d: %w", occ.Document, occ.Line, err)
		}
		return hashWithDomain(DomainDirectiveID, canonical), nil
	}

	params, err := paramsObject(occ.Params)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s:%d: %w", occ.Document, occ.Line, err)
	}

	obj := Object{
		"document": String(occ.Document),
		"kind":     String(occ.Kind),
		"line":     Int(occ.Line),
		"index":    Int(occ.Index),
		"params":   params,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s:%d: %w", occ.Document, occ.Line, err)
	}
	return hashWithDomain(DomainDirective, canonical), nil
}

// paramsObject converts parsed tag parameters to the canonical value model.
// Key order is irrelevant here - canonical marshaling sorts keys, so
// `at="+1h", message="x"` and `message="x", at="+1h"` hash identically.
func paramsObject(params *tag.Params) (Object, error) {
	obj := make(Object, params.Len())
	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		switch v.Type {
		case tag.TypeString:
			obj[key] = String(v.Str)
		case tag.TypeInt:
			obj[key] = Int(v.Int)
		case tag.TypeBool:
			obj[key] = Bool(v.Bool)
		default:
			return nil, fmt.Errorf("parameter %q: unsupported value type %d", key, v.Type)
		}
	}
	return obj, nil
}
