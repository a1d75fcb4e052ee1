package supervisor

import (
	"context"
	"time"
)

// TickerService calls fn immediately and then every interval until the
// context ends. Errors from fn are returned to the supervisor, which restarts
// the service with backoff.
type TickerService struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

func NewTickerService(name string, interval time.Duration, fn func(ctx context.Context) error) *TickerService {
	return &TickerService{name: name, interval: interval, fn: fn}
}

func (s *TickerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.fn(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *TickerService) String() string {
	return s.name
}
