package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type State int

const (
	StateIdle State = iota
	StateDisplaying
	StateNoContent
)

func (s State) String() string {
	switch s {
	case StateDisplaying:
		return "displaying"
	case StateNoContent:
		return "no_content"
	default:
		return "idle"
	}
}

// Status is what playback is doing right now.
type Status struct {
	State  State
	Index  int
	ItemID int
}

// Playback owns the active snapshot and cycles through its entries. It is
// the only goroutine that reads or changes the entry list and index.
type Playback struct {
	renderer Renderer
	retry    time.Duration
	// onNoContent is asked for a fresh playlist while nothing is displayed
	onNoContent func()

	snapshots chan Snapshot
	// owned by the Serve goroutine
	current Snapshot
	loaded  bool

	mu     sync.RWMutex
	status Status
}

func NewPlayback(renderer Renderer, noContentRetry time.Duration, onNoContent func()) *Playback {
	if onNoContent == nil {
		onNoContent = func() {}
	}
	return &Playback{
		renderer:    renderer,
		retry:       noContentRetry,
		onNoContent: onNoContent,
		snapshots:   make(chan Snapshot),
	}
}

// Submit hands s to the playback goroutine. It blocks until the snapshot is
// accepted or ctx ends.
func (p *Playback) Submit(ctx context.Context, s Snapshot) error {
	select {
	case p.snapshots <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Playback) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Playback) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *Playback) Serve(ctx context.Context) error {
	var (
		snap   Snapshot
		index  int
		timer  *time.Timer
		timerC <-chan time.Time
		endC   <-chan struct{}
		retry  *time.Ticker
		retryC <-chan time.Time
	)

	stopAdvance := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		timerC, endC = nil, nil
	}
	stopRetry := func() {
		if retry != nil {
			retry.Stop()
			retry = nil
		}
		retryC = nil
	}
	defer stopAdvance()
	defer stopRetry()

	show := func(i int) {
		stopAdvance()
		index = i
		e := snap.Entries[i]
		p.setStatus(Status{State: StateDisplaying, Index: i, ItemID: e.ItemID})

		done, err := p.renderer.Show(ctx, e)
		if err != nil {
			log.Error().Err(err).Int("item_id", e.ItemID).Msg("failed to display entry")
		}
		if e.IsVideo() && done != nil && err == nil {
			endC = done
			return
		}
		timer = time.NewTimer(e.Duration)
		timerC = timer.C
	}

	replace := func(s Snapshot) {
		snap = s
		stopAdvance()
		if snap.Empty() {
			p.setStatus(Status{State: StateNoContent})
			p.renderer.Clear(ctx)
			if retry == nil && p.retry > 0 {
				retry = time.NewTicker(p.retry)
				retryC = retry.C
			}
			return
		}
		stopRetry()
		show(0)
	}

	// after a restart the last accepted playlist is shown again from the top
	if p.loaded {
		replace(p.current)
	} else {
		p.setStatus(Status{State: StateIdle})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s := <-p.snapshots:
			p.current, p.loaded = s, true
			log.Info().Int("entries", len(s.Entries)).Msg("playlist replaced")
			replace(s)

		case <-timerC:
			show((index + 1) % len(snap.Entries))

		case <-endC:
			show((index + 1) % len(snap.Entries))

		case <-retryC:
			p.onNoContent()
		}
	}
}

func (p *Playback) String() string {
	return "playback"
}
