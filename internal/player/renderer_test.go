package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

func TestLogRenderer_SimulatesVideoEnd(t *testing.T) {
	r := NewLogRenderer()

	done, err := r.Show(context.Background(), Entry{ItemID: 1, Kind: model.KindVideo, Duration: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("video end was not signalled")
	}

	done, err = r.Show(context.Background(), Entry{ItemID: 2, Kind: model.KindImage, Duration: time.Second})
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestCommandRenderer_EndsWhenProcessExits(t *testing.T) {
	fallback := newFakeRenderer()
	// "sleep" gets the source appended, so the entry plays for 10ms
	r, err := NewCommandRenderer("sleep", fallback)
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	done, err := r.Show(context.Background(), Entry{ItemID: 1, Kind: model.KindVideo, Source: "0.01"})
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process exit was not signalled")
	}

	_, err = r.Show(context.Background(), Entry{ItemID: 2, Kind: model.KindImage})
	require.NoError(t, err)
	assert.Equal(t, 2, (<-fallback.shown).ItemID)
}

func TestCommandRenderer_ReplacingStopsRunningVideo(t *testing.T) {
	r, err := NewCommandRenderer("sleep", newFakeRenderer())
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	done, err := r.Show(context.Background(), Entry{ItemID: 1, Kind: model.KindVideo, Source: "30"})
	require.NoError(t, err)

	r.Clear(context.Background())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("running video was not stopped")
	}
}

func TestNewCommandRenderer_Invalid(t *testing.T) {
	_, err := NewCommandRenderer("   ", nil)
	assert.Error(t, err)

	_, err = NewCommandRenderer("definitely-not-a-real-player-binary --fs", nil)
	assert.Error(t, err)
}
