package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"favsync/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and external dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:    %s\n", ctx.configPath)
			fmt.Fprintf(out, "Sync root: %s\n", cfg.Sync.Root)
			fmt.Fprintf(out, "Codec:     %s\n", cfg.Sync.Codec)
			if cfg.History.Enabled {
				fmt.Fprintf(out, "History:   %s\n", cfg.History.Path)
			} else {
				fmt.Fprintln(out, "History:   disabled")
			}

			rows := make([][]string, 0, 1)
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				state := "ok"
				detail := status.Command
				if !status.Available {
					state = "missing"
					detail = status.Detail
				}
				rows = append(rows, []string{status.Name, state, detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
