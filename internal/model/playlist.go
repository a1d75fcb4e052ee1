package model

import "time"

// transition effects
const (
	TransitionFade  = "fade"
	TransitionSlide = "slide"
	TransitionNone  = "none"
)

type Playlist struct {
	ID               int            `db:"id"                json:"id"`
	Name             string         `db:"name"              json:"name"`
	Description      *string        `db:"description"       json:"description"`
	TransitionEffect string         `db:"transition_effect" json:"transition_effect"`
	CreatedAt        time.Time      `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"        json:"updated_at"`
	Items            []PlaylistItem `db:"-"                 json:"items,omitempty"`
}

// PlaylistItem binds a Content into a Playlist. The content is referenced by id
// only; callers look it up explicitly through the store.
type PlaylistItem struct {
	ID               int     `db:"id"                json:"id"`
	PlaylistID       int     `db:"playlist_id"       json:"playlist_id"`
	ContentID        int     `db:"content_id"        json:"content_id"`
	Order            int     `db:"item_order"        json:"order"`
	DurationOverride *int    `db:"duration_override" json:"duration_override"`
	ScheduleStart    *string `db:"schedule_start"    json:"schedule_start"` // HH:MM:SS, stored but not enforced
	ScheduleEnd      *string `db:"schedule_end"      json:"schedule_end"`
}

// ItemWithContent is a playlist item joined with the content it references.
type ItemWithContent struct {
	Item    PlaylistItem
	Content Content
}

// ResolvedItem is one playback entry: an item, its content, and the effective
// display time after applying override-then-default precedence.
type ResolvedItem struct {
	PlaylistItem
	Content  Content `json:"content"`
	Duration int     `json:"duration"`
}

func ValidTransition(effect string) bool {
	switch effect {
	case TransitionFade, TransitionSlide, TransitionNone:
		return true
	}
	return false
}
