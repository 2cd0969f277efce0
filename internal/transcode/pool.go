// Package transcode executes the per-track conversion work under a bounded
// worker pool with failure isolation and milestone progress reporting.
package transcode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"favsync/internal/library"
	"favsync/internal/logging"
)

// Failure records one track that could not be converted during this run.
// The entry reappears in the next run's work-set, so failures are retried
// automatically on the following invocation.
type Failure struct {
	Entry library.Entry
	Err   error
}

// Workers resolves the pool size: the configured value when positive,
// otherwise available parallelism minus one, minimum one.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Pool converts work-set entries concurrently.
type Pool struct {
	runner  Runner
	workers int
	logger  *slog.Logger
}

// NewPool constructs a pool over the given runner.
func NewPool(runner Runner, workers int, logger *slog.Logger) *Pool {
	return &Pool{
		runner:  runner,
		workers: Workers(workers),
		logger:  logging.WithComponent(logger, "transcode"),
	}
}

// Run processes the work-set and returns the per-entry failures. A failing
// conversion never aborts its siblings; the pool always drains the full
// work-set unless the context is cancelled.
func (p *Pool) Run(ctx context.Context, work []library.Entry) []Failure {
	if len(work) == 0 {
		return nil
	}

	milestones := NewMilestones(len(work), func(percent, completed, total int) {
		p.logger.Info("sync progress",
			logging.Int("percent", percent),
			logging.Int("completed", completed),
			logging.Int("total", total),
		)
	})
	milestones.Start()

	var mu sync.Mutex
	var failures []Failure

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)
	for _, entry := range work {
		entry := entry
		group.Go(func() error {
			if err := p.convert(groupCtx, entry); err != nil {
				p.logger.Error("conversion failed",
					logging.String("source", entry.Track.SourcePath),
					logging.String("dest", entry.Path),
					logging.Error(err),
				)
				mu.Lock()
				failures = append(failures, Failure{Entry: entry, Err: err})
				mu.Unlock()
			}
			milestones.Complete()
			return nil
		})
	}
	_ = group.Wait()
	return failures
}

func (p *Pool) convert(ctx context.Context, entry library.Entry) error {
	// Sibling tasks may target the same album directory concurrently.
	if err := os.MkdirAll(filepath.Dir(entry.Path), 0o755); err != nil {
		return err
	}
	// Defensive re-check: identifier uniqueness should make this
	// unreachable, but a pre-existing destination is never overwritten.
	if _, err := os.Stat(entry.Path); err == nil {
		p.logger.Debug("destination already exists", logging.String("dest", entry.Path))
		return nil
	}
	p.logger.Debug("converting",
		logging.String("source", entry.Track.SourcePath),
		logging.String("dest", entry.Path),
	)
	if err := p.runner.Transcode(ctx, entry.Track.SourcePath, entry.Path); err != nil {
		// Drop any partial output so the next run retries cleanly.
		_ = os.Remove(entry.Path)
		return err
	}
	return nil
}
