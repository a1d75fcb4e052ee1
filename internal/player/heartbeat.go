package player

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/client"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
)

type Announcer interface {
	Register(ctx context.Context, name, location string) (packets.ScreenResponse, error)
	Heartbeat(ctx context.Context) error
}

// Heartbeater keeps the screen registered and marked online.
type Heartbeater struct {
	api        Announcer
	name       string
	location   string
	registered bool
	// onRegistered runs after every successful registration
	onRegistered func()
}

func NewHeartbeater(api Announcer, name, location string, onRegistered func()) *Heartbeater {
	if onRegistered == nil {
		onRegistered = func() {}
	}
	return &Heartbeater{api: api, name: name, location: location, onRegistered: onRegistered}
}

// Beat registers the screen if that has not succeeded yet, otherwise sends a
// heartbeat. A heartbeat the server rejects as unknown triggers a fresh
// registration. Errors are logged only; the caller's interval is the retry.
func (h *Heartbeater) Beat(ctx context.Context) error {
	if !h.registered {
		h.register(ctx)
		return nil
	}

	err := h.api.Heartbeat(ctx)
	switch {
	case err == nil:
		log.Debug().Msg("heartbeat sent")
	case client.IsNotFound(err):
		log.Warn().Msg("server does not know this screen, registering again")
		h.registered = false
		h.register(ctx)
	default:
		log.Warn().Err(err).Msg("heartbeat failed")
	}
	return nil
}

func (h *Heartbeater) register(ctx context.Context) {
	screen, err := h.api.Register(ctx, h.name, h.location)
	if err != nil {
		log.Warn().Err(err).Msg("registration failed")
		return
	}
	h.registered = true
	log.Info().Int("screen_id", screen.ID).Str("identifier", screen.Identifier).Str("name", screen.Name).Msg("registered with server")
	h.onRegistered()
}
