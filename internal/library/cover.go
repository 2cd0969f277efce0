package library

// CoverBaseName is the fixed name for per-album artwork, independent of the
// image format actually fetched.
const CoverBaseName = "cover"

// CoverFileNames lists every file name a cover may be stored under. Once any
// of these exists in an album directory, artwork is considered synced.
func CoverFileNames() []string {
	return []string{CoverBaseName + ".jpg", CoverBaseName + ".png"}
}
