package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Renderer puts entries on screen. Show replaces whatever is displayed. When
// the renderer can tell when a video ends it returns a channel that is closed
// at end of media; a nil channel means playback falls back to the entry's
// duration.
type Renderer interface {
	Show(ctx context.Context, e Entry) (<-chan struct{}, error)
	Clear(ctx context.Context)
}

// LogRenderer is the headless renderer: it only logs what would be shown and
// simulates the end of a video after its duration.
type LogRenderer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func NewLogRenderer() *LogRenderer {
	return &LogRenderer{}
}

func (r *LogRenderer) Show(_ context.Context, e Entry) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	log.Info().
		Int("item_id", e.ItemID).
		Int("content_id", e.ContentID).
		Str("kind", e.Kind).
		Str("source", e.Source).
		Dur("duration", e.Duration).
		Msg("displaying")

	if !e.IsVideo() {
		return nil, nil
	}
	done := make(chan struct{})
	r.timer = time.AfterFunc(e.Duration, func() { close(done) })
	return done, nil
}

func (r *LogRenderer) Clear(context.Context) {
	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
	log.Info().Msg("no content to display")
}

func (r *LogRenderer) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// CommandRenderer plays videos through an external player command such as
// "mpv --fs"; the file path is appended as the last argument and the video
// ends when the process exits. Everything else goes to the fallback renderer.
type CommandRenderer struct {
	argv     []string
	fallback Renderer

	mu   sync.Mutex
	proc *exec.Cmd
}

func NewCommandRenderer(command string, fallback Renderer) (*CommandRenderer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("video command is empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("video command %q: %w", argv[0], err)
	}
	if fallback == nil {
		fallback = NewLogRenderer()
	}
	return &CommandRenderer{argv: argv, fallback: fallback}, nil
}

func (r *CommandRenderer) Show(ctx context.Context, e Entry) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	if !e.IsVideo() {
		return r.fallback.Show(ctx, e)
	}

	args := append(append([]string{}, r.argv[1:]...), e.Source)
	cmd := exec.CommandContext(ctx, r.argv[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.argv[0], err)
	}
	r.proc = cmd
	log.Info().Int("item_id", e.ItemID).Str("source", e.Source).Int("pid", cmd.Process.Pid).Msg("playing video")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Int("item_id", e.ItemID).Msg("video player exited")
		}
	}()
	return done, nil
}

func (r *CommandRenderer) Clear(ctx context.Context) {
	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
	r.fallback.Clear(ctx)
}

func (r *CommandRenderer) stopLocked() {
	if r.proc != nil {
		_ = r.proc.Process.Kill()
	}
	r.proc = nil
}
