package tag

// Kind identifies the directive family a tag belongs to.
type Kind string

const (
	// KindReminder creates an entry in the user's reminders app.
	KindReminder Kind = "reminder"

	// KindCalendar creates a calendar event.
	KindCalendar Kind = "calendar"

	// KindMessage sends an iMessage. Irreversible once dispatched, so the
	// dispatcher requires an explicit confirmation on top of execute mode.
	KindMessage Kind = "imessage"
)

// KnownKinds lists every directive kind the scanner recognizes.
var KnownKinds = map[Kind]bool{
	KindReminder: true,
	KindCalendar: true,
	KindMessage:  true,
}

// RawTag is one directive marker located in a document, before parsing.
//
// Line is 1-based. Index is the 0-based position of this tag among all tags
// on the same line; two tags sharing a line stay distinguishable through it.
type RawTag struct {
	Kind      Kind
	Document  string
	Line      int
	Index     int
	RawParams string // text between the balanced parentheses, unparsed
}

// Occurrence is a fully parsed directive found in a document.
//
// Occurrences are rebuilt from scratch on every scan pass and never
// persisted. Only their fingerprint and firing outcome survive a run.
type Occurrence struct {
	Kind     Kind
	Document string
	Line     int
	Index    int
	Params   *Params

	// StableID is the author-supplied id="..." parameter, empty when absent.
	// When present it pins the directive's identity across edits.
	StableID string
}

// NewOccurrence builds an Occurrence from a scanned tag and its parsed
// parameters, lifting the optional id parameter into StableID.
func NewOccurrence(raw RawTag, params *Params) *Occurrence {
	occ := &Occurrence{
		Kind:     raw.Kind,
		Document: raw.Document,
		Line:     raw.Line,
		Index:    raw.Index,
		Params:   params,
	}
	if v, ok := params.Get("id"); ok && v.Type == TypeString {
		occ.StableID = v.Str
	}
	return occ
}
