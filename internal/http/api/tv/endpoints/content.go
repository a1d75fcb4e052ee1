package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/metrics"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

type ContentController struct {
	store db.Store
	files storage.Storage
}

func newContentController(store db.Store, files storage.Storage) *ContentController {
	return &ContentController{store: store, files: files}
}

// ContentModule mounts media download and the public read endpoints.
func ContentModule(store db.Store, files storage.Storage) api.Module {
	ctl := newContentController(store, files)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content", ctl.listContent)
		c.RawGET("/content/:id/download", ctl.download)
		c.RawGET("/content/:id/thumbnail", ctl.thumbnail)

		c.GET("/playlist/:id", ctl.getPlaylist)
	})
}

// GET /api/content
func (cc *ContentController) listContent(ctx *gin.Context) (any, *api.Error) {
	all, err := cc.store.ListContent(ctx.Request.Context())
	if err != nil {
		return nil, api.Internal("could not list content")
	}
	out := make([]packets.ContentResponse, 0, len(all))
	for _, c := range all {
		out = append(out, packets.Content(c))
	}
	return out, nil
}

// GET /api/playlist/:id
func (cc *ContentController) getPlaylist(ctx *gin.Context) (any, *api.Error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, api.BadRequest("invalid id")
	}
	pl, err := cc.store.GetPlaylistByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStore(err, "playlist")
	}
	return packets.Playlist(pl), nil
}

// GET /api/content/:id/download
func (cc *ContentController) download(ctx *gin.Context) {
	content, ok := cc.lookup(ctx)
	if !ok {
		return
	}
	if !content.Downloadable() {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Content has no downloadable file"})
		return
	}
	if cc.serve(ctx, content, "attachment") {
		metrics.RecordDownload(content.Kind)
	}
}

// GET /api/content/:id/thumbnail
//
// Images are their own thumbnail; videos have none yet.
func (cc *ContentController) thumbnail(ctx *gin.Context) {
	content, ok := cc.lookup(ctx)
	if !ok {
		return
	}
	switch content.Kind {
	case model.KindImage:
		cc.serve(ctx, content, "inline")
	case model.KindVideo:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Thumbnails are not available for videos"})
	default:
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Content has no thumbnail"})
	}
}

func (cc *ContentController) lookup(ctx *gin.Context) (model.Content, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return model.Content{}, false
	}
	content, err := cc.store.GetContentByID(ctx.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return model.Content{}, false
	}
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("[content] could not load content")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return model.Content{}, false
	}
	return content, true
}

func (cc *ContentController) serve(ctx *gin.Context, content model.Content, disposition string) bool {
	obj, err := cc.files.Open(ctx.Request.Context(), content.Location)
	if errors.Is(err, storage.ErrNotExist) {
		log.Warn().Int("content_id", content.ID).Str("location", content.Location).Msg("[content] file missing from storage")
		ctx.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return false
	}
	if err != nil {
		log.Error().Err(err).Int("content_id", content.ID).Msg("[content] could not open file")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not open file"})
		return false
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if content.MimeType != nil && *content.MimeType != "" {
		contentType = *content.MimeType
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, path.Base(content.Location)),
	}
	ctx.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, headers)
	return true
}
