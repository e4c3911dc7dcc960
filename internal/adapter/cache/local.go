package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/ports"
)

const defaultMaxEntries = 10000

// LocalCache is a process-local ports.Cache for geocode results. It holds at
// most maxEntries keys; a full cache evicts the entry closest to expiry.
type LocalCache struct {
	mu         sync.RWMutex
	entries    map[string]localEntry
	maxEntries int
	now        func() time.Time
	log        *zap.Logger

	stop context.CancelFunc
}

type localEntry struct {
	value   string
	expires time.Time // zero means no expiry
}

func (e localEntry) liveAt(t time.Time) bool {
	return e.expires.IsZero() || t.Before(e.expires)
}

// NewLocalCache starts a sweeper that drops expired entries every sweepEvery.
func NewLocalCache(sweepEvery time.Duration, maxEntries int, log *zap.Logger) *LocalCache {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &LocalCache{
		entries:    make(map[string]localEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		log:        log,
		stop:       stop,
	}
	go c.sweepLoop(ctx, sweepEvery)

	log.Info("Using in-process geocode cache",
		zap.Duration("sweep_every", sweepEvery),
		zap.Int("max_entries", maxEntries),
	)
	return c
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !e.liveAt(c.now()) {
		return "", ports.ErrCacheMiss
	}
	return e.value, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := localEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Ping always succeeds; there is no connection to lose.
func (c *LocalCache) Ping() error { return nil }

// Close stops the sweeper. Safe to call more than once.
func (c *LocalCache) Close() error {
	c.stop()
	return nil
}

// evictLocked drops expired entries, or failing that the one expiring
// soonest. Entries without expiry go last.
func (c *LocalCache) evictLocked() {
	if c.sweepLocked() > 0 {
		return
	}

	var victim string
	var soonest time.Time
	for k, e := range c.entries {
		if victim == "" || (!e.expires.IsZero() && (soonest.IsZero() || e.expires.Before(soonest))) {
			victim, soonest = k, e.expires
		}
	}
	delete(c.entries, victim)
}

func (c *LocalCache) sweepLocked() int {
	now := c.now()
	dropped := 0
	for k, e := range c.entries {
		if !e.liveAt(now) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

func (c *LocalCache) sweep() {
	c.mu.Lock()
	dropped := c.sweepLocked()
	c.mu.Unlock()

	if dropped > 0 {
		c.log.Debug("Swept expired geocode entries", zap.Int("dropped", dropped))
	}
}

func (c *LocalCache) sweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}
