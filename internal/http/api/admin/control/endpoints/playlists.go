package endpoints

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/admin/control/packets"
	tvpackets "github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

type PlaylistController struct {
	store  db.Store
	notify *notifier
}

// PlaylistModule mounts all /playlists endpoints.
func PlaylistModule(d Deps) api.Module {
	ctl := &PlaylistController{store: d.Store, notify: d.notifier()}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PUT("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)

		c.GET("/playlists/:id/items", ctl.listItems)
		c.POST("/playlists/:id/items", ctl.addItem)
		c.PUT("/playlists/:id/items", ctl.reorderItems)
		c.PUT("/playlists/:id/items/:item_id", ctl.updateItem)
		c.DELETE("/playlists/:id/items/:item_id", ctl.removeItem)
	})
}

// scheduleTime accepts HH:MM or HH:MM:SS and normalises to HH:MM:SS.
func scheduleTime(v *string) (*string, bool) {
	if v == nil || *v == "" {
		return nil, true
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, *v); err == nil {
			out := t.Format("15:04:05")
			return &out, true
		}
	}
	return nil, false
}

func playlistID(ctx *gin.Context) (int, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, api.BadRequest("invalid playlist id")
	}
	return id, nil
}

// GET /api/admin/playlists
func (p *PlaylistController) listPlaylists(ctx *gin.Context) (any, *api.Error) {
	all, err := p.store.ListPlaylists(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("[playlist] list: could not list playlists")
		return nil, api.Internal("could not list playlists")
	}
	out := make([]tvpackets.PlaylistResponse, 0, len(all))
	for _, pl := range all {
		out = append(out, tvpackets.Playlist(pl))
	}
	return out, nil
}

// POST /api/admin/playlists
func (p *PlaylistController) createPlaylist(ctx *gin.Context) (any, *api.Error) {
	var req packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("[playlist] create: bad request")
		return nil, api.BadRequest(err.Error())
	}
	if req.TransitionEffect != "" && !model.ValidTransition(req.TransitionEffect) {
		return nil, api.BadRequest("transition_effect must be fade, slide or none")
	}

	pl, err := p.store.CreatePlaylist(ctx.Request.Context(), req.Name, req.Description, req.TransitionEffect, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("[playlist] create: could not create playlist")
		return nil, api.Internal("could not create playlist")
	}
	return api.Created(tvpackets.Playlist(pl)), nil
}

// GET /api/admin/playlists/:id
func (p *PlaylistController) getPlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	pl, err := p.store.GetPlaylistByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStore(err, "playlist")
	}
	return tvpackets.Playlist(pl), nil
}

// PUT /api/admin/playlists/:id
func (p *PlaylistController) updatePlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if req.TransitionEffect != nil && !model.ValidTransition(*req.TransitionEffect) {
		return nil, api.BadRequest("transition_effect must be fade, slide or none")
	}

	reqCtx := ctx.Request.Context()
	if err := p.store.UpdatePlaylist(reqCtx, id, req.Name, req.Description, req.TransitionEffect, time.Now().UTC()); err != nil {
		return nil, api.FromStore(err, "playlist")
	}
	p.notify.playlistsUpdated(reqCtx, id)

	pl, err := p.store.GetPlaylistByID(reqCtx, id)
	if err != nil {
		return nil, api.FromStore(err, "playlist")
	}
	return tvpackets.Playlist(pl), nil
}

// DELETE /api/admin/playlists/:id
//
// Removes the items and unassigns the playlist from its screens.
func (p *PlaylistController) deletePlaylist(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	reqCtx := ctx.Request.Context()
	screens, err := p.store.ListScreensUsingPlaylist(reqCtx, id)
	if err != nil {
		return nil, api.Internal("could not delete playlist")
	}
	if err := p.store.DeletePlaylist(reqCtx, id); err != nil {
		return nil, api.FromStore(err, "playlist")
	}

	p.notify.etags.Invalidate(reqCtx, id)
	identifiers := make([]string, 0, len(screens))
	for _, s := range screens {
		identifiers = append(identifiers, s.Identifier)
	}
	p.notify.push(reqCtx, nil, identifiers...)

	log.Info().Int("playlist_id", id).Int("unassigned_screens", len(screens)).Msg("playlist deleted")
	return packets.MessageResponse{Success: true, Message: "Playlist deleted"}, nil
}

// GET /api/admin/playlists/:id/items
func (p *PlaylistController) listItems(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	reqCtx := ctx.Request.Context()
	if _, err := p.store.GetPlaylistByID(reqCtx, id); err != nil {
		return nil, api.FromStore(err, "playlist")
	}

	items, err := p.store.ListPlaylistItems(reqCtx, id)
	if err != nil {
		log.Error().Err(err).Msg("[playlist] list items failed")
		return nil, api.Internal("could not list playlist items")
	}
	out := make([]tvpackets.PlaylistItemResponse, len(items))
	for i, it := range items {
		out[i] = tvpackets.PlaylistItem(it)
	}
	return out, nil
}

// POST /api/admin/playlists/:id/items
func (p *PlaylistController) addItem(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.AddPlaylistItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if req.DurationOverride != nil && *req.DurationOverride <= 0 {
		return nil, api.BadRequest("duration_override must be positive")
	}
	start, ok := scheduleTime(req.ScheduleStart)
	if !ok {
		return nil, api.BadRequest("schedule_start must be HH:MM or HH:MM:SS")
	}
	end, ok := scheduleTime(req.ScheduleEnd)
	if !ok {
		return nil, api.BadRequest("schedule_end must be HH:MM or HH:MM:SS")
	}

	reqCtx := ctx.Request.Context()
	item, err := p.store.AddItemToPlaylist(reqCtx, db.NewItem{
		PlaylistID:       id,
		ContentID:        req.ContentID,
		Order:            req.Order,
		DurationOverride: req.DurationOverride,
		ScheduleStart:    start,
		ScheduleEnd:      end,
	})
	if err != nil {
		return nil, api.FromStore(err, "playlist or content")
	}

	p.notify.playlistsUpdated(reqCtx, id)
	return api.Created(tvpackets.PlaylistItem(item)), nil
}

// PUT /api/admin/playlists/:id/items/:item_id
func (p *PlaylistController) updateItem(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, api.BadRequest("invalid item id")
	}

	var req packets.UpdatePlaylistItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if req.DurationOverride != nil {
		if req.ClearDurationOverride {
			return nil, api.BadRequest("duration_override and clear_duration_override are exclusive")
		}
		if *req.DurationOverride <= 0 {
			return nil, api.BadRequest("duration_override must be positive")
		}
	}

	reqCtx := ctx.Request.Context()
	update := db.ItemUpdate{
		Order:                 req.Order,
		DurationOverride:      req.DurationOverride,
		ClearDurationOverride: req.ClearDurationOverride,
	}
	if err := p.store.UpdatePlaylistItem(reqCtx, id, itemID, update); err != nil {
		return nil, api.FromStore(err, "playlist item")
	}

	p.notify.playlistsUpdated(reqCtx, id)
	return packets.MessageResponse{Success: true, Message: "Item updated"}, nil
}

// PUT /api/admin/playlists/:id/items
func (p *PlaylistController) reorderItems(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.ReorderItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	reqCtx := ctx.Request.Context()
	if err := p.store.ReorderPlaylistItems(reqCtx, id, req.ItemIDs); err != nil {
		return nil, api.FromStore(err, "playlist item")
	}

	p.notify.playlistsUpdated(reqCtx, id)
	return packets.MessageResponse{Success: true, Message: "Items reordered"}, nil
}

// DELETE /api/admin/playlists/:id/items/:item_id
func (p *PlaylistController) removeItem(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := playlistID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, api.BadRequest("invalid item id")
	}

	reqCtx := ctx.Request.Context()
	if err := p.store.RemovePlaylistItem(reqCtx, id, itemID); err != nil {
		return nil, api.FromStore(err, "playlist item")
	}

	p.notify.playlistsUpdated(reqCtx, id)
	return packets.MessageResponse{Success: true, Message: "Item removed"}, nil
}
