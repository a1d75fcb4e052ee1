package player

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

type fakeRenderer struct {
	shown   chan Entry
	cleared chan struct{}

	mu   sync.Mutex
	ends map[int]chan struct{}
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		shown:   make(chan Entry, 64),
		cleared: make(chan struct{}, 64),
		ends:    map[int]chan struct{}{},
	}
}

func (r *fakeRenderer) endOf(itemID int) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.ends[itemID] = ch
	return ch
}

func (r *fakeRenderer) Show(_ context.Context, e Entry) (<-chan struct{}, error) {
	r.shown <- e
	if !e.IsVideo() {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.ends[e.ItemID]; ok {
		return ch, nil
	}
	return nil, nil
}

func (r *fakeRenderer) Clear(context.Context) {
	r.cleared <- struct{}{}
}

func nextShown(t *testing.T, r *fakeRenderer) Entry {
	t.Helper()
	select {
	case e := <-r.shown:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an entry to be shown")
		return Entry{}
	}
}

func noneShown(t *testing.T, r *fakeRenderer, wait time.Duration) {
	t.Helper()
	select {
	case e := <-r.shown:
		t.Fatalf("unexpected entry %d shown", e.ItemID)
	case <-time.After(wait):
	}
}

func image(id int, d time.Duration) Entry {
	return Entry{ItemID: id, ContentID: id, Kind: model.KindImage, Source: "/cache/x.png", Duration: d}
}

// startPlayback runs p until the returned stop func or test cleanup.
func startPlayback(t *testing.T, p *Playback) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Error("playback did not stop")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

func TestPlayback_StartsIdle(t *testing.T) {
	p := NewPlayback(newFakeRenderer(), time.Hour, nil)
	startPlayback(t, p)
	assert.Eventually(t, func() bool { return p.Status().State == StateIdle }, time.Second, 5*time.Millisecond)
}

func TestPlayback_CyclesAndWraps(t *testing.T) {
	r := newFakeRenderer()
	p := NewPlayback(r, time.Hour, nil)
	startPlayback(t, p)

	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{
		image(1, 20*time.Millisecond),
		image(2, 20*time.Millisecond),
	}}))

	var order []int
	for range 5 {
		order = append(order, nextShown(t, r).ItemID)
	}
	assert.Equal(t, []int{1, 2, 1, 2, 1}, order)
}

func TestPlayback_NewSnapshotResetsToFirstEntry(t *testing.T) {
	r := newFakeRenderer()
	p := NewPlayback(r, time.Hour, nil)
	startPlayback(t, p)

	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{
		image(1, 10*time.Millisecond),
		image(2, time.Hour),
	}}))
	assert.Equal(t, 1, nextShown(t, r).ItemID)
	assert.Equal(t, 2, nextShown(t, r).ItemID)

	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{
		image(3, time.Hour),
		image(4, 10*time.Millisecond),
	}}))
	assert.Equal(t, 3, nextShown(t, r).ItemID)

	st := p.Status()
	assert.Equal(t, StateDisplaying, st.State)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 3, st.ItemID)

	// the old advance timer was cancelled and the new first entry is long
	noneShown(t, r, 50*time.Millisecond)
}

func TestPlayback_VideoAdvancesOnEndOfMedia(t *testing.T) {
	r := newFakeRenderer()
	end := r.endOf(1)
	p := NewPlayback(r, time.Hour, nil)
	startPlayback(t, p)

	video := Entry{ItemID: 1, Kind: model.KindVideo, Source: "/cache/v.mp4", Duration: 5 * time.Millisecond}
	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{video, image(2, time.Hour)}}))

	assert.Equal(t, 1, nextShown(t, r).ItemID)
	noneShown(t, r, 50*time.Millisecond)

	close(end)
	assert.Equal(t, 2, nextShown(t, r).ItemID)
}

func TestPlayback_VideoWithoutEndSignalUsesDuration(t *testing.T) {
	r := newFakeRenderer()
	p := NewPlayback(r, time.Hour, nil)
	startPlayback(t, p)

	video := Entry{ItemID: 1, Kind: model.KindVideo, Source: "/cache/v.mp4", Duration: 10 * time.Millisecond}
	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{video, image(2, time.Hour)}}))

	assert.Equal(t, 1, nextShown(t, r).ItemID)
	assert.Equal(t, 2, nextShown(t, r).ItemID)
}

func TestPlayback_NoContentRetriesUntilContentArrives(t *testing.T) {
	r := newFakeRenderer()
	var asked atomic.Int32
	p := NewPlayback(r, 10*time.Millisecond, func() { asked.Add(1) })
	startPlayback(t, p)

	require.NoError(t, p.Submit(context.Background(), Snapshot{}))
	select {
	case <-r.cleared:
	case <-time.After(time.Second):
		t.Fatal("renderer was not cleared")
	}
	assert.Equal(t, StateNoContent, p.Status().State)
	require.Eventually(t, func() bool { return asked.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{image(1, time.Hour)}}))
	assert.Equal(t, 1, nextShown(t, r).ItemID)
	require.Eventually(t, func() bool { return p.Status().State == StateDisplaying }, time.Second, 5*time.Millisecond)

	n := asked.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, asked.Load(), "retries stop once content is displayed")
}

func TestPlayback_RestartReplaysLastSnapshot(t *testing.T) {
	r := newFakeRenderer()
	p := NewPlayback(r, time.Hour, nil)

	stop := startPlayback(t, p)
	require.NoError(t, p.Submit(context.Background(), Snapshot{Entries: []Entry{image(7, time.Hour)}}))
	assert.Equal(t, 7, nextShown(t, r).ItemID)
	stop()

	startPlayback(t, p)
	assert.Equal(t, 7, nextShown(t, r).ItemID)
}

func TestPlayback_SubmitHonoursContext(t *testing.T) {
	p := NewPlayback(newFakeRenderer(), time.Hour, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// nothing is serving, so the handoff cannot complete
	assert.ErrorIs(t, p.Submit(ctx, Snapshot{}), context.DeadlineExceeded)
}
