package model

import "time"

// screen status
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Screen represents a display device in the system.
type Screen struct {
	ID                int        `db:"id"                  json:"id"`
	Identifier        string     `db:"identifier"          json:"identifier"`
	Name              string     `db:"name"                json:"name"`
	Location          string     `db:"location"            json:"location"`
	Status            string     `db:"status"              json:"status"`
	LastSeen          *time.Time `db:"last_seen"           json:"last_seen"`
	CurrentPlaylistID *int       `db:"current_playlist_id" json:"current_playlist_id"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
}
