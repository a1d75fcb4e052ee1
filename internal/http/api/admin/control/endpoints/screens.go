package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/admin/control/packets"
	tvpackets "github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
)

type ScreenController struct {
	store  db.Store
	notify *notifier
}

// ScreenModule mounts the /screens admin endpoints. Screens are created by
// registration only.
func ScreenModule(d Deps) api.Module {
	ctl := &ScreenController{store: d.Store, notify: d.notifier()}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/screens", ctl.listScreens)
		c.GET("/screens/:id", ctl.getScreen)
		c.DELETE("/screens/:id", ctl.deleteScreen)

		c.PUT("/screens/:id/playlist", ctl.assignPlaylistToScreen)
	})
}

func screenID(ctx *gin.Context) (int, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, api.BadRequest("invalid screen id")
	}
	return id, nil
}

// GET /api/admin/screens
func (s *ScreenController) listScreens(ctx *gin.Context) (any, *api.Error) {
	all, err := s.store.ListScreens(ctx.Request.Context())
	if err != nil {
		return nil, api.Internal("could not list screens")
	}
	out := make([]tvpackets.ScreenResponse, 0, len(all))
	for _, screen := range all {
		out = append(out, tvpackets.Screen(screen))
	}
	return out, nil
}

// GET /api/admin/screens/:id
func (s *ScreenController) getScreen(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := screenID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	screen, err := s.store.GetScreenByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStore(err, "screen")
	}
	return tvpackets.Screen(screen), nil
}

// DELETE /api/admin/screens/:id
func (s *ScreenController) deleteScreen(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := screenID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.store.DeleteScreen(ctx.Request.Context(), id); err != nil {
		return nil, api.FromStore(err, "screen")
	}
	return packets.MessageResponse{Success: true, Message: "Screen deleted"}, nil
}

// PUT /api/admin/screens/:id/playlist
//
// The playlist is not checked for existence; an unknown id resolves to no
// content on the next fetch.
func (s *ScreenController) assignPlaylistToScreen(ctx *gin.Context) (any, *api.Error) {
	id, apiErr := screenID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.AssignPlaylistToScreenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Str("route", ctx.FullPath()).Msg("failed to bind JSON in playlist assignment")
		return nil, api.BadRequest(err.Error())
	}

	reqCtx := ctx.Request.Context()
	screen, err := s.store.GetScreenByID(reqCtx, id)
	if err != nil {
		return nil, api.FromStore(err, "screen")
	}
	if err := s.store.AssignPlaylistToScreen(reqCtx, id, req.PlaylistID); err != nil {
		log.Error().Err(err).Int("screen_id", id).Str("route", ctx.FullPath()).
			Msg("failed to assign playlist to screen")
		return nil, api.FromStore(err, "screen")
	}

	s.notify.push(reqCtx, req.PlaylistID, screen.Identifier)

	if req.PlaylistID == nil {
		log.Info().Int("screen_id", id).Msg("unassigned playlist from screen")
		return packets.MessageResponse{Success: true, Message: "Playlist unassigned"}, nil
	}
	log.Info().Int("screen_id", id).Int("playlist_id", *req.PlaylistID).
		Msg("successfully assigned playlist to screen")
	return packets.MessageResponse{Success: true, Message: "Playlist assigned"}, nil
}
