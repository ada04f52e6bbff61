package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Throttle limits how many rounds a caller may start per window.
type Throttle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// MemoryThrottle is a single-process fixed-window limiter, used when no
// Redis is configured.
type MemoryThrottle struct {
	counters *cache.Cache
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		counters: cache.New(DefaultRateWindow, 2*DefaultRateWindow),
	}
}

func (t *MemoryThrottle) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	for {
		if err := t.counters.Add(key, 1, window); err == nil {
			return limit >= 1, nil
		}

		n, err := t.counters.IncrementInt(key, 1)
		if err == nil {
			return n <= limit, nil
		}
		// The counter expired between Add and IncrementInt; start a new window.
	}
}
