package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/metrics"
	"github.com/Nixie-Tech-LLC/signage/internal/redis"
	"github.com/Nixie-Tech-LLC/signage/internal/resolver"
)

// ETags caches content ETags per playlist version. *redis.ETagCache is the
// production implementation; a nil one caches nothing.
type ETags interface {
	Version(ctx context.Context, playlistID int) (int64, bool)
	Get(ctx context.Context, playlistID int) (string, bool)
	Set(ctx context.Context, playlistID int, version int64, etag string)
}

type ScreenController struct {
	store    db.Store
	resolver *resolver.Resolver
	etags    ETags
	now      func() time.Time
}

func newScreenController(store db.Store, etags ETags) *ScreenController {
	if etags == nil {
		etags = (*redis.ETagCache)(nil)
	}
	return &ScreenController{
		store:    store,
		resolver: resolver.New(store),
		etags:    etags,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScreenModule mounts the device-facing /screen endpoints and the public
// screen listing.
func ScreenModule(store db.Store, etags ETags) api.Module {
	ctl := newScreenController(store, etags)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/screen/register", ctl.register)
		c.POST("/screen/:identifier/heartbeat", ctl.heartbeat)
		c.RawGET("/screen/:identifier/content", ctl.content)

		c.GET("/screens", ctl.listScreens)
	})
}

// POST /api/screen/register
func (s *ScreenController) register(ctx *gin.Context) (any, *api.Error) {
	var req packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest("identifier is required")
	}

	screen, err := s.store.RegisterScreen(ctx.Request.Context(), req.Identifier, req.Name, req.Location, s.now())
	if err != nil {
		log.Error().Err(err).Str("identifier", req.Identifier).Msg("[screen] register: could not register screen")
		return nil, api.Internal("could not register screen")
	}
	metrics.ScreenRegistrations.Inc()
	log.Info().Str("identifier", screen.Identifier).Int("screen_id", screen.ID).Msg("screen registered")

	return packets.RegisterResponse{Success: true, Screen: packets.Screen(screen)}, nil
}

// POST /api/screen/:identifier/heartbeat
func (s *ScreenController) heartbeat(ctx *gin.Context) (any, *api.Error) {
	identifier := ctx.Param("identifier")
	_, err := s.store.TouchScreen(ctx.Request.Context(), identifier, s.now())
	if errors.Is(err, db.ErrNotFound) {
		metrics.RecordHeartbeat(false)
		return nil, api.NotFound("Screen not found")
	}
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("[screen] heartbeat: could not update screen")
		return nil, api.Internal("could not record heartbeat")
	}
	metrics.RecordHeartbeat(true)
	return packets.SuccessResponse{Success: true}, nil
}

// GET /api/screen/:identifier/content
//
// Counts as a heartbeat. The ETag of the resolved payload is cached per
// playlist version, so a matching If-None-Match is answered without loading
// items. The version is read before resolving; an invalidation that lands
// while items load leaves the stored ETag on a version nobody reads.
func (s *ScreenController) content(ctx *gin.Context) {
	identifier := ctx.Param("identifier")
	reqCtx := ctx.Request.Context()
	ifNoneMatch := ctx.GetHeader("If-None-Match")

	screen, err := s.store.TouchScreen(reqCtx, identifier, s.now())
	if errors.Is(err, db.ErrNotFound) {
		metrics.RecordContentFetch("unknown")
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Screen not found"})
		return
	}
	if err != nil {
		metrics.RecordContentFetch("error")
		log.Error().Err(err).Str("identifier", identifier).Msg("[screen] content: could not update screen")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}

	if screen.CurrentPlaylistID != nil && ifNoneMatch != "" {
		if cached, ok := s.etags.Get(reqCtx, *screen.CurrentPlaylistID); ok && etagMatches(ifNoneMatch, cached) {
			s.notModified(ctx, cached)
			return
		}
	}

	var (
		version   int64
		versioned bool
	)
	if screen.CurrentPlaylistID != nil {
		version, versioned = s.etags.Version(reqCtx, *screen.CurrentPlaylistID)
	}

	playlist, items, err := s.resolver.ForScreen(reqCtx, screen)
	if err != nil {
		metrics.RecordContentFetch("error")
		log.Error().Err(err).Str("identifier", identifier).Msg("[screen] content: could not resolve playlist")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}

	body, err := json.Marshal(packets.ScreenContent(playlist, items))
	if err != nil {
		metrics.RecordContentFetch("error")
		log.Error().Err(err).Str("identifier", identifier).Msg("[screen] content: could not encode response")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not load content"})
		return
	}

	etag := ComputeETag(body)
	if versioned && playlist != nil && playlist.ID == *screen.CurrentPlaylistID {
		s.etags.Set(reqCtx, playlist.ID, version, etag)
	}
	if etagMatches(ifNoneMatch, etag) {
		s.notModified(ctx, etag)
		return
	}

	metrics.RecordContentFetch("ok")
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *ScreenController) notModified(ctx *gin.Context, etag string) {
	metrics.RecordContentFetch("not_modified")
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")
	ctx.Status(http.StatusNotModified)
}

// GET /api/screens
func (s *ScreenController) listScreens(ctx *gin.Context) (any, *api.Error) {
	all, err := s.store.ListScreens(ctx.Request.Context())
	if err != nil {
		return nil, api.Internal("could not list screens")
	}
	out := make([]packets.ScreenResponse, 0, len(all))
	for _, screen := range all {
		out = append(out, packets.Screen(screen))
	}
	return out, nil
}
