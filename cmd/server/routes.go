package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/signage/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/signage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signage/internal/redis"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

type Dependencies struct {
	Store   db.Store
	Storage storage.Storage
	ETags   *redis.ETagCache
	Refresh adminapi.Refresher
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
			"ETag",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		clientapi.ScreenModule(deps.Store, deps.ETags),
		clientapi.ContentModule(deps.Store, deps.Storage),
	)

	admin := adminapi.Deps{Store: deps.Store, ETags: deps.ETags, Refresh: deps.Refresh}
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		adminapi.ContentModule(admin),
		adminapi.PlaylistModule(admin),
		adminapi.ScreenModule(admin),
	)
}
