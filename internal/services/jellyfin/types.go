package jellyfin

import (
	"fmt"
	"strings"
)

// Kind identifies the catalog item type.
type Kind string

const (
	KindAudio  Kind = "Audio"
	KindAlbum  Kind = "MusicAlbum"
	KindArtist Kind = "MusicArtist"
)

// Item is a typed catalog record. For audio items all track fields are
// populated; for containers only ID, Name, and Kind are meaningful.
type Item struct {
	ID      string
	Name    string
	Kind    Kind
	Artists []string
	Album   string
	AlbumID string
	// Year is the release year, 0 when the server reports none.
	Year int
	// Index is the position within the album, 0 when unordered.
	Index int
	// Path is the server-side source path used as transcode input.
	Path string
}

// ParseError reports a catalog record missing a required field. Records are
// rejected loudly rather than silently dropping fields, since an incomplete
// record would corrupt the reconciliation set.
type ParseError struct {
	ItemID string
	Field  string
}

func (e *ParseError) Error() string {
	id := e.ItemID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("catalog item %s: missing required field %q", id, e.Field)
}

// rawItem mirrors the wire shape of a Jellyfin item record. Pointer fields
// distinguish absent values from zero values.
type rawItem struct {
	Name           *string  `json:"Name"`
	ID             *string  `json:"Id"`
	Type           *string  `json:"Type"`
	Artists        []string `json:"Artists"`
	Album          string   `json:"Album"`
	AlbumID        string   `json:"AlbumId"`
	ProductionYear *int     `json:"ProductionYear"`
	IndexNumber    *int     `json:"IndexNumber"`
	Path           *string  `json:"Path"`
}

type itemsResponse struct {
	Items []rawItem `json:"Items"`
}

func (r rawItem) toItem() (Item, error) {
	var id string
	if r.ID != nil {
		id = strings.TrimSpace(*r.ID)
	}
	if id == "" {
		return Item{}, &ParseError{Field: "Id"}
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return Item{}, &ParseError{ItemID: id, Field: "Name"}
	}
	if r.Type == nil || strings.TrimSpace(*r.Type) == "" {
		return Item{}, &ParseError{ItemID: id, Field: "Type"}
	}

	item := Item{
		ID:      id,
		Name:    strings.TrimSpace(*r.Name),
		Kind:    Kind(strings.TrimSpace(*r.Type)),
		Artists: r.Artists,
		Album:   strings.TrimSpace(r.Album),
		AlbumID: strings.TrimSpace(r.AlbumID),
	}
	switch item.Kind {
	case KindAudio, KindAlbum, KindArtist:
	default:
		return Item{}, &ParseError{ItemID: id, Field: "Type"}
	}

	if item.Kind == KindAudio {
		if r.Path == nil || strings.TrimSpace(*r.Path) == "" {
			return Item{}, &ParseError{ItemID: id, Field: "Path"}
		}
		item.Path = strings.TrimSpace(*r.Path)
		if r.ProductionYear != nil && *r.ProductionYear > 0 {
			item.Year = *r.ProductionYear
		}
		if r.IndexNumber != nil && *r.IndexNumber > 0 {
			item.Index = *r.IndexNumber
		}
	}
	return item, nil
}
