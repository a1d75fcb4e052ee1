package player

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/signage/internal/client"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

type ContentSource interface {
	Content(ctx context.Context, etag string) (client.ContentResult, error)
}

type Localizer interface {
	EnsureLocal(ctx context.Context, content model.Content) (string, error)
}

// Sink receives finished snapshots, normally Playback.Submit.
type Sink func(ctx context.Context, s Snapshot) error

// Refresher polls the server for the screen's playlist, makes every entry
// local and hands complete snapshots to playback.
type Refresher struct {
	source   ContentSource
	cache    Localizer
	sink     Sink
	interval time.Duration
	workers  int

	trigger chan struct{}
	// only touched from Refresh, which runs on the Serve goroutine
	etag string
}

func NewRefresher(source ContentSource, cache Localizer, sink Sink, interval time.Duration, workers int) *Refresher {
	if workers < 1 {
		workers = 1
	}
	return &Refresher{
		source:   source,
		cache:    cache,
		sink:     sink,
		interval: interval,
		workers:  workers,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger asks for a refresh ahead of the next tick. It never blocks; pending
// triggers collapse into one.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Refresher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Refresh(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-r.trigger:
		}
	}
}

func (r *Refresher) String() string {
	return "content-refresher"
}

// Refresh runs one cycle and reports whether a snapshot was handed off.
// Failures are logged and left for the next cycle.
func (r *Refresher) Refresh(ctx context.Context) bool {
	res, err := r.source.Content(ctx, r.etag)
	if err != nil {
		log.Warn().Err(err).Msg("content refresh failed")
		return false
	}
	if res.NotModified {
		log.Debug().Str("etag", res.ETag).Msg("playlist not modified")
		return false
	}

	snap, complete := r.build(ctx, res)
	if err := r.sink(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("could not hand off playlist")
		return false
	}

	// a partial snapshot keeps no etag so the next cycle fetches and retries
	// the failed downloads
	if complete {
		r.etag = res.ETag
	} else {
		r.etag = ""
	}
	return true
}

func (r *Refresher) build(ctx context.Context, res client.ContentResult) (Snapshot, bool) {
	var snap Snapshot
	if res.Content == nil {
		return snap, true
	}
	if pl := res.Content.Playlist; pl != nil {
		id := pl.ID
		snap.PlaylistID = &id
		snap.Transition = pl.TransitionEffect
	}

	items := res.Content.Items
	sources := make([]string, len(items))
	ok := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, it := range items {
		content := contentFromResponse(it.Content)
		g.Go(func() error {
			src, err := r.cache.EnsureLocal(ctx, content)
			if err != nil {
				log.Warn().Err(err).Int("item_id", it.ID).Int("content_id", content.ID).Msg("dropping entry, content unavailable")
				return nil
			}
			sources[i], ok[i] = src, true
			return nil
		})
	}
	_ = g.Wait()

	complete := true
	snap.Entries = make([]Entry, 0, len(items))
	for i, it := range items {
		if !ok[i] {
			complete = false
			continue
		}
		snap.Entries = append(snap.Entries, Entry{
			ItemID:      it.ID,
			ContentID:   it.Content.ID,
			Kind:        it.Content.ContentType,
			Name:        it.Content.Name,
			Source:      sources[i],
			DisplayMode: it.Content.DisplayMode,
			Duration:    entryDuration(it.Duration),
		})
	}
	return snap, complete
}
