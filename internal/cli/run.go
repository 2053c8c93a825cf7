package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rkellner/notefire/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Confirm enables real message dispatch for this invocation,
	// equivalent to confirm_messages: true in the config.
	Confirm bool
}

// NewRunCommand creates the run command (execute mode).
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan documents and dispatch pending directives",
		Long: `Scan the configured documents and dispatch every directive that has not
fired yet. Each successful dispatch is recorded in the ledger before the
occurrence is reported sent, so re-running is always safe.

Message directives (@imessage) are simulated unless confirmed with
--confirm or confirm_messages: true in the config.

Example:
  notefire run --config notefire.yaml
  notefire run --confirm --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd, engine.ModeExecute)
		},
	}

	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "allow real message dispatch")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command, mode engine.Mode) error {
	execute := mode == engine.ModeExecute

	a, err := openApp(opts.RootOptions, appOptions{
		withLock:        execute,
		confirmMessages: opts.Confirm,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if execute {
		if err := a.validateBridge(); err != nil {
			return err
		}
	}

	docs, err := LoadDocuments(a.cfg.Documents)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load documents", err)
	}
	slog.Debug("documents loaded", "count", len(docs))

	// Ctrl-C stops starting new dispatches; the in-flight one finishes.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping after in-flight dispatch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rep := a.engine.Run(ctx, docs, mode)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		if err := formatter.Success(rep); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
	} else {
		renderReport(cmd.OutOrStdout(), rep)
	}

	if execute && rep.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d dispatch(es) failed", rep.Failed))
	}
	return nil
}
