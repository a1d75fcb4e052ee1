package liveness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeMarker struct {
	before time.Time
	n      int64
	err    error
}

func (f *fakeMarker) MarkStaleScreensOffline(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.n, f.err
}

func TestSweepUsesThreshold(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	m := &fakeMarker{n: 2}
	s := NewSweeper(m, 5*time.Minute)
	s.now = func() time.Time { return now }

	assert.NoError(t, s.Sweep(context.Background()))
	assert.Equal(t, now.Add(-5*time.Minute), m.before)
}

func TestSweepSwallowsStoreErrors(t *testing.T) {
	s := NewSweeper(&fakeMarker{err: errors.New("db down")}, time.Minute)
	assert.NoError(t, s.Sweep(context.Background()))
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 150*time.Second, NewSweeper(nil, 5*time.Minute).Interval())
	assert.Equal(t, time.Second, NewSweeper(nil, time.Second).Interval())
}
