package cli

import (
	"github.com/spf13/cobra"

	"github.com/rkellner/notefire/internal/engine"
)

// NewScanCommand creates the scan command (dry-run mode).
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Preview what a run would dispatch, without side effects",
		Long: `Scan the configured documents and report what a run would do. Nothing is
dispatched and the ledger is not written: "sent" in a scan report means
"would be sent". Directives already in the ledger show as already_sent.

Example:
  notefire scan --config notefire.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &RunOptions{RootOptions: rootOpts}
			return runEngine(opts, cmd, engine.ModeDryRun)
		},
	}

	return cmd
}
