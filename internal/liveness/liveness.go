// Package liveness flips screens to offline once they stop reporting in.
// Disabled unless a threshold is configured.
package liveness

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/metrics"
)

type Marker interface {
	MarkStaleScreensOffline(ctx context.Context, before time.Time) (int64, error)
}

type Sweeper struct {
	store     Marker
	threshold time.Duration
	now       func() time.Time
}

func NewSweeper(store Marker, threshold time.Duration) *Sweeper {
	return &Sweeper{store: store, threshold: threshold, now: time.Now}
}

// Interval is how often the sweep should run for the configured threshold.
func (s *Sweeper) Interval() time.Duration {
	iv := s.threshold / 2
	if iv < time.Second {
		iv = time.Second
	}
	return iv
}

// Sweep marks every online screen not seen within the threshold offline.
// Store errors are logged and do not stop the sweeper.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.threshold)
	n, err := s.store.MarkStaleScreensOffline(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("liveness sweep failed")
		return nil
	}
	if n > 0 {
		metrics.ScreensMarkedOffline.Add(float64(n))
		log.Info().Int64("screens", n).Time("cutoff", cutoff).Msg("marked stale screens offline")
	}
	return nil
}
