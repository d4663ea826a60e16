package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
	"mediasort/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sort everything under the source directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx)
		},
	}
}

func runPipeline(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.buildLogger()
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	opts := []pipeline.Option{}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		opts = append(opts, pipeline.WithProgress(newProgressReporter().update))
	}

	runner, err := pipeline.New(cfg, store, logger, opts...)
	if err != nil {
		return err
	}
	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(summary))
	if len(summary.DuplicateMigrated) > 0 {
		fmt.Fprintf(out, "WARNING: %d fingerprint(s) migrated more than once; inspect the ledger with `mediasort report`\n", len(summary.DuplicateMigrated))
	}
	return nil
}

func renderSummary(summary pipeline.Summary) string {
	rows := [][]string{
		{"Migrated", strconv.Itoa(summary.Counts.Migrated)},
		{"Duplicates", strconv.Itoa(summary.Counts.Duplicates)},
		{"To review", strconv.Itoa(summary.Counts.ToReview)},
		{"Errored", strconv.Itoa(summary.Counts.Errored)},
		{"Ignored", strconv.Itoa(summary.Counts.Ignored)},
	}
	table := renderTable([]string{"Outcome", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
	return table + "\n" + fmt.Sprintf("Processed %d file(s) in %s", summary.Eligible, summary.Duration.Round(time.Millisecond))
}

// progressReporter lazily creates the bar once the total is known.
type progressReporter struct {
	bar *progressbar.ProgressBar
}

func newProgressReporter() *progressReporter {
	return &progressReporter{}
}

func (p *progressReporter) update(done, total int, _ pipeline.Counts) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("sorting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
		)
	}
	_ = p.bar.Set(done)
}
