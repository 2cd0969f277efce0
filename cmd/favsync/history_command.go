package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"favsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in %s", ctx.configPath)
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sync runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.StartedAt.Local().Format("2006-01-02 15:04"),
					string(rec.Status),
					strconv.Itoa(rec.Favorited),
					strconv.Itoa(rec.Transcoded),
					strconv.Itoa(rec.Deleted),
					strconv.Itoa(rec.Covers),
					strconv.Itoa(len(rec.Failures)),
					rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Status", "Favorited", "Transcoded", "Deleted", "Covers", "Failed", "Elapsed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
