// Package library derives the canonical destination path for each track.
// The derivation is a pure function of track metadata so repeated runs with
// unchanged remote state map to identical paths.
package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"favsync/internal/catalog"
	"favsync/internal/config"
	"favsync/internal/textutil"
)

const (
	// unknownYear renders in place of a missing release year.
	unknownYear = "0000"
)

// Entry pairs a track with its canonical destination path.
type Entry struct {
	Track catalog.Track
	// Path is the absolute canonical destination for the transcoded file.
	Path string
}

// Layout maps track metadata onto the destination tree.
type Layout struct {
	root      string
	extension string
}

// NewLayout builds a layout rooted at the configured sync directory with the
// configured target codec's extension.
func NewLayout(cfg *config.Config) Layout {
	return Layout{root: cfg.Sync.Root, extension: cfg.TargetExtension()}
}

// NewLayoutAt builds a layout with explicit parameters, primarily for tests.
func NewLayoutAt(root, extension string) Layout {
	return Layout{root: root, extension: extension}
}

// Root returns the sync root directory.
func (l Layout) Root() string {
	return l.root
}

// AlbumDir returns the directory holding a track's album:
// "<artists joined by ", "> - <album> [<year>]".
func (l Layout) AlbumDir(track catalog.Track) string {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		if clean := textutil.SanitizeFileName(artist); clean != "" {
			artists = append(artists, clean)
		}
	}
	artistPart := strings.Join(artists, ", ")
	if artistPart == "" {
		artistPart = "Unknown Artist"
	}
	album := textutil.SanitizeFileName(track.Album)
	if album == "" {
		album = "Unknown Album"
	}
	year := unknownYear
	if track.Year > 0 {
		year = fmt.Sprintf("%d", track.Year)
	}
	dir := fmt.Sprintf("%s - %s [%s]", artistPart, album, year)
	return filepath.Join(l.root, dir)
}

// TrackPath returns the canonical destination file:
// "<album dir>/<index zero-padded to 2 digits> <title>.<ext>". A missing
// index renders as "00" so unordered tracks stay stable across runs.
func (l Layout) TrackPath(track catalog.Track) string {
	title := textutil.SanitizeFileName(track.Title)
	if title == "" {
		title = track.ID
	}
	name := fmt.Sprintf("%02d %s%s", track.Index, title, l.extension)
	return filepath.Join(l.AlbumDir(track), name)
}

// Entries derives the desired entry for every track.
func (l Layout) Entries(tracks []catalog.Track) []Entry {
	entries := make([]Entry, 0, len(tracks))
	for _, track := range tracks {
		entries = append(entries, Entry{Track: track, Path: l.TrackPath(track)})
	}
	return entries
}
