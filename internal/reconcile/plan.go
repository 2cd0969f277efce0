// Package reconcile diffs the desired track set against the sync root and
// executes the destructive half of the sync: removing local files that no
// longer correspond to any favorited track.
package reconcile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"favsync/internal/fileutil"
	"favsync/internal/library"
	"favsync/internal/logging"
)

// Plan is the per-run reconciliation result. It is computed once from the
// full desired set plus a filesystem listing, consumed immediately, and
// never persisted: the filesystem itself is the only memory between runs.
type Plan struct {
	// Deletes holds on-disk files matching no desired entry.
	Deletes []string
	// Work holds desired entries whose canonical path does not exist yet.
	Work []library.Entry
	// Skipped counts desired entries already present on disk.
	Skipped int
}

// Build lists all regular files under root and partitions the state:
// delete-set, work-set, and the already-present count. An empty desired set
// plans the deletion of everything under the root; the favorites list is
// authoritative.
func Build(entries []library.Entry, root string) (*Plan, error) {
	desired := make(map[string]struct{}, len(entries))
	desiredDirs := make(map[string]struct{})
	for _, entry := range entries {
		abs, err := filepath.Abs(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve desired path %q: %w", entry.Path, err)
		}
		desired[abs] = struct{}{}
		desiredDirs[filepath.Dir(abs)] = struct{}{}
	}

	covers := make(map[string]struct{}, 2)
	for _, name := range library.CoverFileNames() {
		covers[name] = struct{}{}
	}

	files, err := fileutil.ListFiles(root)
	if err != nil {
		return nil, fmt.Errorf("list sync root: %w", err)
	}

	plan := &Plan{}
	for _, file := range files {
		if _, ok := desired[file]; ok {
			continue
		}
		// Cover art is owned by the album directory, not by any single
		// track entry; keep it while the directory is still desired.
		if _, isCover := covers[filepath.Base(file)]; isCover {
			if _, dirDesired := desiredDirs[filepath.Dir(file)]; dirDesired {
				continue
			}
		}
		plan.Deletes = append(plan.Deletes, file)
	}
	for _, entry := range entries {
		if _, err := os.Stat(entry.Path); err == nil {
			plan.Skipped++
			continue
		}
		plan.Work = append(plan.Work, entry)
	}
	return plan, nil
}

// ExecuteDeletes removes every file in the delete-set and prunes directories
// left empty. It runs to completion before any transcode starts, so a
// transcode never races a deletion for the same path. Removals are
// unconditional; there is no confirmation and no recycle bin.
func (p *Plan) ExecuteDeletes(root string, logger *slog.Logger) error {
	log := logging.WithComponent(logger, "reconcile")
	for _, path := range p.Deletes {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %q: %w", path, err)
		}
		log.Debug("removed stale file", logging.String("path", path))
	}
	if len(p.Deletes) > 0 {
		if err := fileutil.PruneEmptyDirs(root); err != nil {
			return fmt.Errorf("prune empty directories: %w", err)
		}
		log.Info("stale files removed", logging.Int("count", len(p.Deletes)))
	}
	return nil
}
