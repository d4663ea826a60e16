package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/logging"
	"mediasort/internal/reset"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the ledger, log file, and sorted destination trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, ctx)
		},
	}
}

func runReset(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	// Reset removes the log file itself, so its progress goes to the
	// terminal instead of the run logger.
	removed, err := reset.Run(cfg, logging.NewNop())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(removed) == 0 {
		fmt.Fprintln(out, "Nothing to remove; environment already clean")
		return nil
	}
	for _, path := range removed {
		fmt.Fprintf(out, "Removed %s\n", path)
	}
	return nil
}
