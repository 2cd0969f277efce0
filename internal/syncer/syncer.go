// Package syncer orchestrates one full sync run: resolve the favorited
// track set, reconcile the destination tree, then convert missing tracks and
// fetch album covers under bounded concurrency.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"favsync/internal/artwork"
	"favsync/internal/catalog"
	"favsync/internal/config"
	"favsync/internal/deps"
	"favsync/internal/history"
	"favsync/internal/library"
	"favsync/internal/logging"
	"favsync/internal/notifications"
	"favsync/internal/reconcile"
	"favsync/internal/services"
	"favsync/internal/services/jellyfin"
	"favsync/internal/transcode"
)

// Report summarizes the outcome of one run.
type Report struct {
	RunID      string
	Favorited  int
	Transcoded int
	Deleted    int
	Skipped    int
	Covers     int
	Duration   time.Duration

	TranscodeFailures []transcode.Failure
	ArtworkFailures   []artwork.Failure
}

// Failed reports whether any per-item work failed.
func (r *Report) Failed() int {
	return len(r.TranscodeFailures) + len(r.ArtworkFailures)
}

// Syncer wires the pipeline components for a run.
type Syncer struct {
	cfg      *config.Config
	catalog  jellyfin.Catalog
	runner   transcode.Runner
	store    *history.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// New builds a syncer over the standard components derived from config. The
// history store may be nil when persistence is disabled.
func New(cfg *config.Config, cat jellyfin.Catalog, runner transcode.Runner, store *history.Store, notifier notifications.Service, logger *slog.Logger) *Syncer {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Syncer{
		cfg:      cfg,
		catalog:  cat,
		runner:   runner,
		store:    store,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "syncer"),
	}
}

// Run executes one sync. Fatal errors (configuration, catalog fetch, lock
// contention) abort before any filesystem mutation and are returned;
// per-item failures are collected into the report instead.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	report, err := s.run(ctx, started)
	if err != nil {
		s.recordRun(ctx, started, nil, err)
		if notifyErr := s.notifier.NotifySyncFailed(ctx, err); notifyErr != nil {
			s.logger.Warn("failure notification not delivered", logging.Error(notifyErr))
		}
		return nil, err
	}

	report.Duration = time.Since(started)
	report.RunID = s.recordRun(ctx, started, report, nil)
	s.notifyCompleted(ctx, report)
	return report, nil
}

func (s *Syncer) run(ctx context.Context, started time.Time) (*Report, error) {
	if err := deps.Verify(s.cfg); err != nil {
		return nil, err
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "syncer", "prepare", "ensure directories", err)
	}

	lock := flock.New(s.cfg.Sync.Root + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "syncer", "lock", "acquire instance lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrUnavailable, "syncer", "lock", "another favsync instance is already running", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	resolver := catalog.NewResolver(s.catalog, s.logger)
	tracks, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	layout := library.NewLayout(s.cfg)
	entries := layout.Entries(tracks)
	plan, err := reconcile.Build(entries, s.cfg.Sync.Root)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "syncer", "plan", "reconcile destination tree", err)
	}

	present := 0
	if len(entries) > 0 {
		present = plan.Skipped * 100 / len(entries)
	}
	s.logger.Info("sync plan ready",
		logging.Int("favorited", len(entries)),
		logging.Int("to_transcode", len(plan.Work)),
		logging.Int("to_delete", len(plan.Deletes)),
		logging.Int("already_present", plan.Skipped),
		logging.Int("present_percent", present),
	)

	// Deletions run to completion first so a conversion never races a
	// removal for the same path.
	if err := plan.ExecuteDeletes(s.cfg.Sync.Root, s.logger); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "syncer", "reconcile", "delete stale files", err)
	}

	pool := transcode.NewPool(s.runner, s.cfg.Sync.Workers, s.logger)
	covers := artwork.NewSyncer(s.catalog, layout, s.cfg.Sync.Workers, s.logger)

	var transcodeFailures []transcode.Failure
	var artworkFailures []artwork.Failure
	var coversWritten int

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		transcodeFailures = pool.Run(ctx, plan.Work)
	}()
	go func() {
		defer wg.Done()
		coversWritten, artworkFailures = covers.Sync(ctx, tracks)
	}()
	wg.Wait()

	report := &Report{
		Favorited:         len(entries),
		Transcoded:        len(plan.Work) - len(transcodeFailures),
		Deleted:           len(plan.Deletes),
		Skipped:           plan.Skipped,
		Covers:            coversWritten,
		TranscodeFailures: transcodeFailures,
		ArtworkFailures:   artworkFailures,
	}
	s.logger.Info("sync finished",
		logging.Int("transcoded", report.Transcoded),
		logging.Int("deleted", report.Deleted),
		logging.Int("covers", report.Covers),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

// recordRun persists the run summary when history is enabled. Persistence
// problems are logged, never fatal.
func (s *Syncer) recordRun(ctx context.Context, started time.Time, report *Report, runErr error) string {
	if s.store == nil {
		return ""
	}

	rec := history.Record{
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	switch {
	case runErr != nil:
		rec.Status = history.StatusFailed
		rec.Detail = runErr.Error()
	case report.Failed() > 0:
		rec.Status = history.StatusPartial
	default:
		rec.Status = history.StatusCompleted
	}
	if report != nil {
		rec.Favorited = report.Favorited
		rec.Transcoded = report.Transcoded
		rec.Deleted = report.Deleted
		rec.Skipped = report.Skipped
		rec.Covers = report.Covers
		for _, failure := range report.TranscodeFailures {
			rec.Failures = append(rec.Failures, history.FailureRecord{
				Kind:    "transcode",
				Subject: failure.Entry.Track.SourcePath,
				Detail:  failure.Err.Error(),
			})
		}
		for _, failure := range report.ArtworkFailures {
			rec.Failures = append(rec.Failures, history.FailureRecord{
				Kind:    "artwork",
				Subject: failure.AlbumID,
				Detail:  failure.Err.Error(),
			})
		}
	}

	id, err := s.store.RecordRun(ctx, rec)
	if err != nil {
		s.logger.Warn("run history not recorded", logging.Error(err))
		return ""
	}
	return id
}

func (s *Syncer) notifyCompleted(ctx context.Context, report *Report) {
	summary := notifications.Summary{
		Favorited:  report.Favorited,
		Transcoded: report.Transcoded,
		Deleted:    report.Deleted,
		Covers:     report.Covers,
		Failed:     report.Failed(),
		Duration:   report.Duration,
	}
	if err := s.notifier.NotifySyncCompleted(ctx, summary); err != nil {
		s.logger.Warn("completion notification not delivered", logging.Error(err))
	}
}
