package ratelimit

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// HostLimiter spaces requests per host: at most one request per interval,
// plus up to jitter of random extra delay.
type HostLimiter struct {
	interval time.Duration
	jitter   time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewHostLimiter(interval, jitter time.Duration) *HostLimiter {
	return &HostLimiter{
		interval: interval,
		jitter:   jitter,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h.interval <= 0 {
		return ctx.Err()
	}

	if err := h.limiter(hostOf(rawURL)).Wait(ctx); err != nil {
		return err
	}

	if h.jitter <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(rand.Int63n(int64(h.jitter)))):
		return nil
	}
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[host] = l
	}
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
