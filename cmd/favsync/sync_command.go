package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"favsync/internal/history"
	"favsync/internal/logging"
	"favsync/internal/notifications"
	"favsync/internal/services/jellyfin"
	"favsync/internal/syncer"
	"favsync/internal/transcode"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx)
		},
	}
}

func runSync(cmd *cobra.Command, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := syncer.New(
		cfg,
		jellyfin.NewClient(cfg),
		transcode.NewFFmpeg(cfg),
		store,
		notifications.NewService(cfg),
		logger,
	)
	report, err := s.Run(runCtx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Favorited", "Transcoded", "Deleted", "Skipped", "Covers", "Failed", "Elapsed"},
		[][]string{{
			strconv.Itoa(report.Favorited),
			strconv.Itoa(report.Transcoded),
			strconv.Itoa(report.Deleted),
			strconv.Itoa(report.Skipped),
			strconv.Itoa(report.Covers),
			strconv.Itoa(report.Failed()),
			report.Duration.Round(time.Second).String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	for _, failure := range report.TranscodeFailures {
		fmt.Fprintf(out, "transcode failed: %s: %v\n", failure.Entry.Track.SourcePath, failure.Err)
	}
	for _, failure := range report.ArtworkFailures {
		fmt.Fprintf(out, "cover fetch failed: album %s: %v\n", failure.AlbumID, failure.Err)
	}
	return nil
}
