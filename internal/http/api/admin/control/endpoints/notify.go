package endpoints

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/redis"
)

// Deps are the collaborators shared by the admin modules. ETags and Refresh
// may be nil.
type Deps struct {
	Store   db.Store
	ETags   *redis.ETagCache
	Refresh Refresher
}

func (d Deps) notifier() *notifier {
	return &notifier{store: d.Store, etags: d.ETags, refresh: d.Refresh}
}

// Refresher pushes a refresh command to screens.
type Refresher interface {
	RefreshScreens(ctx context.Context, playlistID *int, identifiers ...string)
}

// notifier invalidates cached content ETags and tells affected screens to
// refetch. ETags are dropped synchronously so the next poll sees the change;
// pushes go out in the background.
type notifier struct {
	store   db.Store
	etags   *redis.ETagCache
	refresh Refresher
}

func (n *notifier) playlistsUpdated(ctx context.Context, playlistIDs ...int) {
	if len(playlistIDs) == 0 {
		return
	}
	n.etags.Invalidate(ctx, playlistIDs...)

	for _, id := range playlistIDs {
		screens, err := n.store.ListScreensUsingPlaylist(ctx, id)
		if err != nil {
			log.Error().Err(err).Int("playlist_id", id).
				Msg("failed to get screens for playlist notification")
			continue
		}
		if len(screens) == 0 {
			log.Debug().Int("playlist_id", id).Msg("no screens assigned to playlist")
			continue
		}

		identifiers := make([]string, 0, len(screens))
		for _, s := range screens {
			identifiers = append(identifiers, s.Identifier)
		}
		n.push(ctx, &id, identifiers...)

		log.Info().Int("playlist_id", id).Int("affected_screens", len(screens)).
			Msg("playlist updated - invalidated playlist ETag for all affected screens")
	}
}

func (n *notifier) push(ctx context.Context, playlistID *int, identifiers ...string) {
	if n.refresh == nil || len(identifiers) == 0 {
		return
	}
	go n.refresh.RefreshScreens(context.WithoutCancel(ctx), playlistID, identifiers...)
}
