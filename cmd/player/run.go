package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/signage/internal/client"
	"github.com/Nixie-Tech-LLC/signage/internal/config"
	"github.com/Nixie-Tech-LLC/signage/internal/contentcache"
	"github.com/Nixie-Tech-LLC/signage/internal/mqtt"
	"github.com/Nixie-Tech-LLC/signage/internal/player"
	"github.com/Nixie-Tech-LLC/signage/internal/supervisor"
)

func runIdentity(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.Identifier)
	return nil
}

func runPlayer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.LogFile).Msg("file logging disabled")
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.New(cfg.ServerURL, cfg.Identifier, nil)
	if err != nil {
		return err
	}

	cache, err := contentcache.New(afero.NewOsFs(), cfg.CacheDir, api)
	if err != nil {
		return err
	}
	if err := cache.Prune(); err != nil {
		log.Warn().Err(err).Msg("could not remove stale partial downloads")
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	p := player.New(cfg, api, cache, renderer)

	if cfg.MQTTBroker != "" {
		// subscriptions are renewed on every (re)connect
		mc, err := mqtt.Connect(cfg.MQTTBroker, "signage-player-"+cfg.Identifier, func(c mqtt.Client) {
			if err := mqtt.Subscribe(c, cfg.Identifier, p.RequestRefresh); err != nil {
				log.Warn().Err(err).Msg("could not subscribe to refresh commands")
			}
		})
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("push refresh unavailable, polling only")
		} else {
			defer mqtt.Disconnect(mc)
		}
	}

	tree := supervisor.NewTree("signage-player", supervisor.DefaultTreeConfig())
	p.Mount(tree)

	log.Info().
		Str("identifier", cfg.Identifier).
		Str("server", cfg.ServerURL).
		Dur("poll_interval", cfg.PollInterval).
		Dur("heartbeat_interval", cfg.HeartbeatInterval).
		Msg("player starting")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	log.Info().Msg("player stopped")
	return nil
}

func newRenderer(cfg config.Config) (player.Renderer, error) {
	logRenderer := player.NewLogRenderer()
	if cfg.VideoCommand == "" {
		return logRenderer, nil
	}
	r, err := player.NewCommandRenderer(cfg.VideoCommand, logRenderer)
	if err != nil {
		return nil, fmt.Errorf("video_command: %w", err)
	}
	return r, nil
}
