package model

import "time"

// content kinds
const (
	KindImage   = "image"
	KindVideo   = "video"
	KindWebpage = "webpage"
)

// display modes
const (
	DisplayFit  = "fit"  // preserve aspect ratio, letterbox
	DisplayFill = "fill" // crop to fill
)

const DefaultContentDuration = 10

type Content struct {
	ID              int       `db:"id"               json:"id"`
	Name            string    `db:"name"             json:"name"`
	Kind            string    `db:"content_type"     json:"content_type"`
	Location        string    `db:"file_path"        json:"file_path"`
	DefaultDuration int       `db:"duration"         json:"duration"`
	FileSize        *int64    `db:"file_size"        json:"file_size"`
	MimeType        *string   `db:"mime_type"        json:"mime_type"`
	DisplayMode     string    `db:"display_mode"     json:"display_mode"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
}

// Downloadable reports whether the player needs a local copy of the asset.
// Webpages are rendered straight from their URL and have no file or thumbnail.
func (c Content) Downloadable() bool {
	return c.Kind == KindImage || c.Kind == KindVideo
}

func ValidKind(kind string) bool {
	switch kind {
	case KindImage, KindVideo, KindWebpage:
		return true
	}
	return false
}

func ValidDisplayMode(mode string) bool {
	return mode == DisplayFit || mode == DisplayFill
}
