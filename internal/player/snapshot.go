// Package player drives a screen: it keeps its registration alive, pulls the
// resolved playlist, caches the media and cycles through it on a renderer.
//
// Background loops never touch playback state directly. They build an
// immutable Snapshot and hand it to the Playback goroutine, which owns the
// current entry list and index.
package player

import (
	"time"

	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const minEntryDuration = time.Second

// Entry is one renderable playlist step. Source is a local file path for
// cached media or the URL of a webpage.
type Entry struct {
	ItemID      int
	ContentID   int
	Kind        string
	Name        string
	Source      string
	DisplayMode string
	Duration    time.Duration
}

func (e Entry) IsVideo() bool { return e.Kind == model.KindVideo }

// Snapshot is a complete playlist as handed to playback. It is never mutated
// after being sent.
type Snapshot struct {
	PlaylistID *int
	Transition string
	Entries    []Entry
}

func (s Snapshot) Empty() bool { return len(s.Entries) == 0 }

// contentFromResponse rebuilds the content record the cache needs from the
// server's wire form.
func contentFromResponse(c packets.ContentResponse) model.Content {
	return model.Content{
		ID:              c.ID,
		Name:            c.Name,
		Kind:            c.ContentType,
		Location:        c.FilePath,
		DefaultDuration: c.Duration,
		DisplayMode:     c.DisplayMode,
	}
}

func entryDuration(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < minEntryDuration {
		return minEntryDuration
	}
	return d
}
