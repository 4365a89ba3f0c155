package fetch

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter spaces requests to the same host by at least minDelay and adds a
// random jitter up to maxDelay.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func newHostLimiter(minDelay, maxDelay time.Duration) *hostLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepContext,
	}
}

// Wait blocks until a request to host is allowed.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	if h.minDelay <= 0 && h.maxDelay <= 0 {
		return ctx.Err()
	}

	h.mu.Lock()
	lim, ok := h.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(h.minDelay), 1)
		h.limiters[host] = lim
	}
	h.mu.Unlock()

	if h.minDelay > 0 {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	return h.sleep(ctx, h.jitter())
}

func (h *hostLimiter) jitter() time.Duration {
	spread := h.maxDelay - h.minDelay
	if spread <= 0 {
		return 0
	}
	return rand.N(spread)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
