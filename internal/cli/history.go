package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkellner/notefire/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit       int
	RunToken    string
	Fingerprint string
}

// NewHistoryCommand creates the history command over the audit database.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs and dispatch outcomes from the audit database",
		Long: `Query the audit database. Without flags, lists recent runs newest first.
--run shows every dispatch of one run in processing order; --fingerprint
shows every recorded outcome of one directive across all runs.

The audit database is diagnostics only. The ledger alone decides what has
fired; "notefire reset" changes future behavior, deleting audit rows does
not.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "show dispatches of one run token")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "show history of one fingerprint")

	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.AuditDB == "" {
		return NewExitError(ExitCommandError, "audit_db is not configured")
	}

	st, err := store.Open(cfg.AuditDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	switch {
	case opts.RunToken != "":
		dispatches, err := st.ReadDispatches(ctx, opts.RunToken)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read dispatches", err)
		}
		return renderDispatches(formatter, cmd, dispatches)

	case opts.Fingerprint != "":
		dispatches, err := st.FingerprintHistory(ctx, opts.Fingerprint)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read fingerprint history", err)
		}
		return renderDispatches(formatter, cmd, dispatches)

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		out := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(out, "%s %s started=%s documents=%d sent=%d already_sent=%d failed=%d invalid=%d\n",
				r.Token, r.Mode, r.StartedAt.Format(time.RFC3339),
				r.Documents, r.Sent, r.AlreadySent, r.Failed, r.Invalid)
		}
		return nil
	}
}

func renderDispatches(formatter *OutputFormatter, cmd *cobra.Command, dispatches []store.DispatchRecord) error {
	if formatter.Format == "json" {
		return formatter.Success(dispatches)
	}
	out := cmd.OutOrStdout()
	for _, d := range dispatches {
		fmt.Fprintf(out, "%s seq=%d %s:%d [%s] %s",
			d.RunToken, d.Seq, d.Document, d.Line, d.Kind, d.Outcome)
		if d.Simulated {
			fmt.Fprint(out, " (simulated)")
		}
		if d.Receipt != "" {
			fmt.Fprintf(out, " receipt=%s", d.Receipt)
		}
		if d.Reason != "" {
			fmt.Fprintf(out, " - %s", d.Reason)
		}
		fmt.Fprintln(out)
	}
	return nil
}
