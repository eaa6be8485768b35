package browser

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between navigations to the same
// host. One token-bucket limiter per host, created on first use.
type Throttle struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	interval time.Duration
}

// NewThrottle creates a throttle with the given minimum per-host interval.
// A zero interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the host of rawURL may be visited again.
func (t *Throttle) Wait(ctx context.Context, rawURL string) error {
	if t.interval <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	t.mu.Lock()
	limiter, ok := t.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[u.Host] = limiter
	}
	t.mu.Unlock()

	return limiter.Wait(ctx)
}
