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

type ContentController struct {
	store  db.Store
	notify *notifier
}

// ContentModule mounts the /content CRUD endpoints.
func ContentModule(d Deps) api.Module {
	ctl := &ContentController{store: d.Store, notify: d.notifier()}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content", ctl.listContent)
		c.POST("/content", ctl.createContent)
		c.GET("/content/:id", ctl.getContent)
		c.PUT("/content/:id", ctl.updateContent)
		c.DELETE("/content/:id", ctl.deleteContent)
	})
}

// GET /api/admin/content
func (cc *ContentController) listContent(ctx *gin.Context) (any, *api.Error) {
	all, err := cc.store.ListContent(ctx.Request.Context())
	if err != nil {
		return nil, api.Internal("could not list content")
	}
	out := make([]tvpackets.ContentResponse, 0, len(all))
	for _, c := range all {
		out = append(out, tvpackets.Content(c))
	}
	return out, nil
}

// POST /api/admin/content
func (cc *ContentController) createContent(ctx *gin.Context) (any, *api.Error) {
	var req packets.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("[content] create: bad request")
		return nil, api.BadRequest(err.Error())
	}
	if !model.ValidKind(req.ContentType) {
		return nil, api.BadRequest("content_type must be image, video or webpage")
	}
	if req.DisplayMode != "" && !model.ValidDisplayMode(req.DisplayMode) {
		return nil, api.BadRequest("display_mode must be fit or fill")
	}
	duration := model.DefaultContentDuration
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, api.BadRequest("duration must be positive")
		}
		duration = *req.Duration
	}

	c, err := cc.store.CreateContent(ctx.Request.Context(), model.Content{
		Name:            req.Name,
		Kind:            req.ContentType,
		Location:        req.FilePath,
		DefaultDuration: duration,
		FileSize:        req.FileSize,
		MimeType:        req.MimeType,
		DisplayMode:     req.DisplayMode,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("[content] create: could not create content")
		return nil, api.Internal("could not create content")
	}
	return api.Created(tvpackets.Content(c)), nil
}

// GET /api/admin/content/:id
func (cc *ContentController) getContent(ctx *gin.Context) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, api.BadRequest("invalid id")
	}
	c, err := cc.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStore(err, "content")
	}
	return tvpackets.Content(c), nil
}

// PUT /api/admin/content/:id
func (cc *ContentController) updateContent(ctx *gin.Context) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, api.BadRequest("invalid id")
	}

	var req packets.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if req.DisplayMode != nil && !model.ValidDisplayMode(*req.DisplayMode) {
		return nil, api.BadRequest("display_mode must be fit or fill")
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, api.BadRequest("duration must be positive")
	}

	reqCtx := ctx.Request.Context()
	if err := cc.store.UpdateContent(reqCtx, id, req.Name, req.Duration, req.DisplayMode); err != nil {
		return nil, api.FromStore(err, "content")
	}

	if playlists, err := cc.store.ListPlaylistIDsForContent(reqCtx, id); err == nil {
		cc.notify.playlistsUpdated(reqCtx, playlists...)
	}

	c, err := cc.store.GetContentByID(reqCtx, id)
	if err != nil {
		return nil, api.FromStore(err, "content")
	}
	return tvpackets.Content(c), nil
}

// DELETE /api/admin/content/:id
//
// Removes the content from every playlist that referenced it.
func (cc *ContentController) deleteContent(ctx *gin.Context) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, api.BadRequest("invalid id")
	}

	reqCtx := ctx.Request.Context()
	playlists, err := cc.store.ListPlaylistIDsForContent(reqCtx, id)
	if err != nil {
		return nil, api.Internal("could not delete content")
	}
	if err := cc.store.DeleteContent(reqCtx, id); err != nil {
		return nil, api.FromStore(err, "content")
	}
	cc.notify.playlistsUpdated(reqCtx, playlists...)

	return packets.MessageResponse{Success: true, Message: "Content deleted"}, nil
}

