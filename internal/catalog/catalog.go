// Package catalog flattens the user's favorited items into the track set the
// sync pipeline operates on.
package catalog

import (
	"context"
	"log/slog"

	"favsync/internal/logging"
	"favsync/internal/services/jellyfin"
)

// Track is one syncable audio unit.
type Track struct {
	// ID is the stable remote identifier, unique within one run's set.
	ID      string
	Title   string
	Artists []string
	Album   string
	AlbumID string
	// Year is the release year, 0 when unknown.
	Year int
	// Index is the position within the album, 0 when unordered.
	Index int
	// SourcePath is the server-side path handed to the transcoder.
	SourcePath string
}

// Resolver expands favorites into a flat, deduplicated track list.
type Resolver struct {
	catalog jellyfin.Catalog
	logger  *slog.Logger
}

// NewResolver constructs a resolver over the given catalog.
func NewResolver(catalog jellyfin.Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logging.WithComponent(logger, "catalog"),
	}
}

// Resolve queries the favorites, expands favorited albums and artists into
// their tracks, and returns the flattened set deduplicated by track ID.
// Duplicates collapse last-write-wins; the canonical destination path is a
// pure function of metadata, so either copy derives the same path. Any
// request failure aborts the run: reconciliation against a partial catalog
// would delete tracks that are still favorited.
func (r *Resolver) Resolve(ctx context.Context) ([]Track, error) {
	favorites, err := r.catalog.FavoriteItems(ctx)
	if err != nil {
		return nil, err
	}

	var tracks []jellyfin.Item
	var parents []jellyfin.Item
	for _, item := range favorites {
		if item.Kind == jellyfin.KindAudio {
			tracks = append(tracks, item)
		} else {
			parents = append(parents, item)
		}
	}
	r.logger.Debug("favorites fetched",
		logging.Int("tracks", len(tracks)),
		logging.Int("containers", len(parents)),
	)

	for _, parent := range parents {
		children, err := r.catalog.ChildTracks(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("container expanded",
			logging.String("container", parent.Name),
			logging.Int("tracks", len(children)),
		)
		tracks = append(tracks, children...)
	}

	return dedupe(tracks), nil
}

// dedupe collapses duplicate track IDs, keeping the last occurrence while
// preserving first-seen order.
func dedupe(items []jellyfin.Item) []Track {
	index := make(map[string]int, len(items))
	out := make([]Track, 0, len(items))
	for _, item := range items {
		track := Track{
			ID:         item.ID,
			Title:      item.Name,
			Artists:    item.Artists,
			Album:      item.Album,
			AlbumID:    item.AlbumID,
			Year:       item.Year,
			Index:      item.Index,
			SourcePath: item.Path,
		}
		if at, ok := index[track.ID]; ok {
			out[at] = track
			continue
		}
		index[track.ID] = len(out)
		out = append(out, track)
	}
	return out
}
