package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rkellner/notefire/internal/engine"
)

// renderReport writes the human-readable form of a run report.
func renderReport(w io.Writer, rep *engine.Report) {
	fmt.Fprintf(w, "run %s (%s): %d document(s), %d sent, %d already sent, %d failed, %d invalid\n",
		rep.RunToken, rep.Mode, rep.Documents,
		rep.Sent, rep.AlreadySent, rep.Failed, rep.Invalid)

	for _, d := range rep.Details {
		fmt.Fprintf(w, "  %s\n", renderDetail(d))
	}
}

func renderDetail(d engine.Detail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d", d.Document, d.Line)
	if d.Kind != "" {
		fmt.Fprintf(&b, " [%s]", d.Kind)
	}
	fmt.Fprintf(&b, " %s", d.Outcome)
	if d.Simulated {
		b.WriteString(" (simulated)")
	}
	if d.At != nil {
		fmt.Fprintf(&b, " at=%s", d.At.Format(time.RFC3339))
		if d.PastDue {
			b.WriteString(" (past due)")
		}
	}
	if d.Receipt != "" {
		fmt.Fprintf(&b, " receipt=%s", d.Receipt)
	}
	if d.Reason != "" {
		fmt.Fprintf(&b, " - %s", d.Reason)
	}
	for _, warn := range d.Warnings {
		fmt.Fprintf(&b, "\n    warning: %s", warn)
	}
	return b.String()
}
