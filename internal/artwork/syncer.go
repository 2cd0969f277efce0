// Package artwork fetches per-album cover images into the destination tree.
package artwork

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"favsync/internal/catalog"
	"favsync/internal/fileutil"
	"favsync/internal/library"
	"favsync/internal/logging"
	"favsync/internal/services"
	"favsync/internal/transcode"
)

// imageExtensions maps server content types onto cover file extensions.
// Anything else is logged and skipped so an odd server response never
// produces a file the reconciler would not recognize.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ImageSource fetches the primary image for a catalog item.
type ImageSource interface {
	PrimaryImage(ctx context.Context, itemID string) ([]byte, string, error)
}

// Failure records one album whose cover could not be synced.
type Failure struct {
	AlbumID string
	Dir     string
	Err     error
}

// Syncer downloads covers for every album represented in the track set.
type Syncer struct {
	source  ImageSource
	layout  library.Layout
	workers int
	logger  *slog.Logger
}

// NewSyncer constructs an artwork syncer sharing the transcode pool sizing.
func NewSyncer(source ImageSource, layout library.Layout, workers int, logger *slog.Logger) *Syncer {
	return &Syncer{
		source:  source,
		layout:  layout,
		workers: transcode.Workers(workers),
		logger:  logging.WithComponent(logger, "artwork"),
	}
}

type albumRef struct {
	id  string
	dir string
}

// Sync fetches one cover per distinct album directory and reports how many
// covers were written. Albums whose directory already holds a cover are
// skipped, as are tracks without an album identifier. Per-album failures
// never abort siblings.
func (s *Syncer) Sync(ctx context.Context, tracks []catalog.Track) (int, []Failure) {
	albums := s.collect(tracks)
	if len(albums) == 0 {
		return 0, nil
	}

	var mu sync.Mutex
	var failures []Failure
	written := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, album := range albums {
		album := album
		group.Go(func() error {
			wrote, err := s.fetch(groupCtx, album)
			mu.Lock()
			if wrote {
				written++
			}
			if err != nil {
				failures = append(failures, Failure{AlbumID: album.id, Dir: album.dir, Err: err})
			}
			mu.Unlock()
			if err != nil {
				s.logger.Error("cover sync failed",
					logging.String("album_id", album.id),
					logging.String("dir", album.dir),
					logging.Error(err),
				)
			}
			return nil
		})
	}
	_ = group.Wait()
	return written, failures
}

// collect dedupes tracks into one reference per album directory. Distinct
// album IDs mapping onto the same directory resolve to the first ID seen in
// sorted directory order, keeping runs deterministic.
func (s *Syncer) collect(tracks []catalog.Track) []albumRef {
	byDir := make(map[string]string)
	for _, track := range tracks {
		if track.AlbumID == "" {
			continue
		}
		dir := s.layout.AlbumDir(track)
		if _, seen := byDir[dir]; !seen {
			byDir[dir] = track.AlbumID
		}
	}
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	albums := make([]albumRef, 0, len(dirs))
	for _, dir := range dirs {
		albums = append(albums, albumRef{id: byDir[dir], dir: dir})
	}
	return albums
}

func (s *Syncer) fetch(ctx context.Context, album albumRef) (bool, error) {
	if name, ok := existingCover(album.dir); ok {
		s.logger.Debug("cover already present",
			logging.String("dir", album.dir),
			logging.String("file", name),
		)
		return false, nil
	}

	data, contentType, err := s.source.PrimaryImage(ctx, album.id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.logger.Debug("no cover on server", logging.String("album_id", album.id))
			return false, nil
		}
		return false, err
	}

	ext, ok := imageExtensions[normalizeContentType(contentType)]
	if !ok {
		return false, services.Wrap(
			services.ErrTransient,
			"artwork",
			"fetch",
			"unsupported cover content type "+contentType,
			nil,
		)
	}

	// The transcode pool may not have created the directory yet.
	if err := os.MkdirAll(album.dir, 0o755); err != nil {
		return false, err
	}
	target := filepath.Join(album.dir, library.CoverBaseName+ext)
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return false, err
	}
	s.logger.Debug("cover written", logging.String("path", target))
	return true, nil
}

func existingCover(dir string) (string, bool) {
	for _, name := range library.CoverFileNames() {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name, true
		}
	}
	return "", false
}

func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
