package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show ledger statistics and recent placement decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			counts, err := store.StatusCounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("read ledger counts: %w", err)
			}
			records, err := store.Records(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read ledger records: %w", err)
			}

			out := cmd.OutOrStdout()
			total := 0
			countRows := make([][]string, 0, len(counts))
			for _, status := range []ledger.Disposition{
				ledger.DispositionMigrated,
				ledger.DispositionDuplicate,
				ledger.DispositionToReview,
			} {
				countRows = append(countRows, []string{string(status), strconv.Itoa(counts[status])})
				total += counts[status]
			}
			countRows = append(countRows, []string{"total", strconv.Itoa(total)})
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Files"},
				countRows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if len(records) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}

			recordRows := make([][]string, 0, len(records))
			for _, rec := range records {
				date := "-"
				if rec.Year != "" {
					date = rec.Year + "/" + rec.Month
				}
				recordRows = append(recordRows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.FinalName,
					string(rec.MediaType),
					date,
					string(rec.Status),
					rec.DestinationPath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Kind", "Date", "Status", "Destination"},
				recordRows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to list (0 = all)")
	return cmd
}
