package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkellner/notefire/internal/ledger"
)

// LedgerEntry is the listing form of one ledger entry.
type LedgerEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Kind        string    `json:"kind"`
	Document    string    `json:"document"`
	Line        int       `json:"line"`
	FiredAt     time.Time `json:"fired_at"`
	Receipt     string    `json:"receipt,omitempty"`
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List every fired directive in the ledger",
		Long: `List the ledger's contents: one line per fired directive, sorted by
fingerprint. The document and line recorded are where the directive was
when it fired; the document may have changed since.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listLedger(rootOpts, cmd)
		},
	}

	return cmd
}

func listLedger(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}

	entries := make([]LedgerEntry, 0, l.Len())
	for _, fp := range l.Fingerprints() {
		e, _ := l.Entry(fp)
		entries = append(entries, LedgerEntry{
			Fingerprint: fp,
			Kind:        e.Kind,
			Document:    e.Document,
			Line:        e.Line,
			FiredAt:     e.FiredAt,
			Receipt:     e.Receipt,
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(entries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d entr%s in %s\n", len(entries), plural(len(entries), "y", "ies"), cfg.Ledger)
	for _, e := range entries {
		fmt.Fprintf(out, "  %s [%s] %s:%d fired=%s",
			e.Fingerprint, e.Kind, e.Document, e.Line, e.FiredAt.Format(time.RFC3339))
		if e.Receipt != "" {
			fmt.Fprintf(out, " receipt=%s", e.Receipt)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
