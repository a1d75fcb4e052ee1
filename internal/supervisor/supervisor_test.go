package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu       sync.Mutex
	stop     chan struct{}
	listenFn func() error
	shutdown bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenFn != nil {
		return f.listenFn()
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	close(f.stop)
	return nil
}

func TestHTTPServiceShutsDownOnCancel(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.True(t, srv.shutdown)
}

func TestHTTPServiceReturnsListenError(t *testing.T) {
	boom := errors.New("address in use")
	srv := newFakeServer()
	srv.listenFn = func() error { return boom }

	err := NewHTTPService(srv, time.Second).Serve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "http-server", NewHTTPService(srv, 0).String())
}

func TestTickerServiceRunsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewTickerService("sweeper", 5*time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	err := svc.Serve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	assert.Equal(t, "sweeper", svc.String())
}

func TestTreeRestartsFailingService(t *testing.T) {
	var calls atomic.Int32
	tree := NewTree("test", TreeConfig{FailureBackoff: time.Millisecond, FailureThreshold: 100})
	tree.AddBackgroundService(NewTickerService("flaky", time.Hour, func(context.Context) error {
		calls.Add(1)
		return errors.New("transient")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-errCh
}
