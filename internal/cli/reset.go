package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkellner/notefire/internal/ledger"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <fingerprint>",
		Short: "Remove one fingerprint from the ledger so it fires again",
		Long: `Remove a fingerprint from the ledger. The next run treats the matching
directive as never fired and dispatches it again. This is the only way an
entry ever leaves the ledger - nothing automated removes entries.

Find fingerprints with "notefire ledger" or in run reports.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetFingerprint(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func resetFingerprint(opts *RootOptions, cmd *cobra.Command, fp string) error {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	lock, err := ledger.AcquireLock(cfg.Ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "ledger is locked by another process", err)
	}
	defer lock.Release()

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	removed, err := l.Reset(fp)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to persist ledger", err)
	}
	if !removed {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("fingerprint %s not in ledger", fp), nil)
		return NewExitError(ExitFailure, "fingerprint not found")
	}

	return formatter.Success(fmt.Sprintf("fingerprint %s removed; next run will re-fire it", fp))
}
