package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/liveness"
	"github.com/Nixie-Tech-LLC/signage/internal/mqtt"
	"github.com/Nixie-Tech-LLC/signage/internal/redis"
	"github.com/Nixie-Tech-LLC/signage/internal/supervisor"
)

func main() {
	env, err := LoadEnvironment()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment")
	}

	level, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(env.DatabaseDriver, env.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(conn)

	files, err := InitStorage(env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	var etags *redis.ETagCache
	if env.RedisAddress != "" {
		etags = redis.NewETagCache(env.RedisAddress, env.RedisUsername, env.RedisPassword, redis.DefaultTTL)
		if err := etags.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("address", env.RedisAddress).Msg("redis unreachable, continuing; ETags are computed per request until it recovers")
		}
		defer etags.Close()
	}

	var notifier *mqtt.Notifier
	if env.MQTTBroker != "" {
		client, err := mqtt.Connect(env.MQTTBroker, "signage-server", nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer mqtt.Disconnect(client)
		notifier = mqtt.NewNotifier(client)
	}

	if env.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, Dependencies{
		Store:   store,
		Storage: files,
		ETags:   etags,
		Refresh: notifier,
	})

	tree := supervisor.NewTree("signage-server", supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(&http.Server{
		Addr:              env.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}, 10*time.Second))

	if env.OfflineAfter > 0 {
		sweeper := liveness.NewSweeper(store, env.OfflineAfter)
		tree.AddBackgroundService(supervisor.NewTickerService("liveness-sweeper", sweeper.Interval(), sweeper.Sweep))
		log.Info().Dur("offline_after", env.OfflineAfter).Msg("liveness sweeper enabled")
	}

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("supervisor stopped")
	}
	log.Info().Msg("server stopped")
}
