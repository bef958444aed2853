package hull

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chazu/curvekit/pkg/kernel"
)

// maxBuildAttempts bounds the rebuilds of a curve that keeps changing while
// its hull is built.
const maxBuildAttempts = 8

// ErrCurveChanged is returned when a curve was edited during every build
// attempt.
var ErrCurveChanged = errors.New("hull: curve changed during build")

// Cache owns the hull of one curve and rebuilds it when the curve changes.
// At most one goroutine builds at a time; published hulls are read without
// locking.
type Cache struct {
	curve kernel.Curve
	cfg   Config

	mu    sync.Mutex
	local atomic.Uint64
	entry atomic.Pointer[cacheEntry]
}

type cacheEntry struct {
	gen  uint64
	hull *Hull
	err  error
}

// NewCache returns a cache for c. Nothing is built until Hull is called.
func NewCache(c kernel.Curve, cfg Config) *Cache {
	return &Cache{curve: c, cfg: cfg}
}

// Curve returns the cached curve.
func (c *Cache) Curve() kernel.Curve { return c.curve }

// Generation combines the curve's own generation, if it has one, with the
// cache's invalidation count.
func (c *Cache) Generation() uint64 {
	g := c.local.Load()
	if v, ok := c.curve.(kernel.Versioned); ok {
		g += v.Generation()
	}
	return g
}

// Hull returns the current hull, building it when none exists or the
// curve has changed since the last build. A hull is only published when
// the curve's generation did not move while it was built.
func (c *Cache) Hull() (*Hull, error) {
	if e := c.fresh(); e != nil {
		return e.hull, e.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.fresh(); e != nil {
		return e.hull, e.err
	}
	for attempt := 1; attempt <= maxBuildAttempts; attempt++ {
		gen := c.Generation()
		h, err := Build(c.curve, c.cfg)
		if c.Generation() != gen {
			// Edited mid-build: the hull may mix old and new geometry.
			Logger().Debug("hull: curve changed during build", "attempt", attempt)
			continue
		}
		if err != nil {
			Logger().Warn("hull: build failed", "error", err)
		}
		c.entry.Store(&cacheEntry{gen: gen, hull: h, err: err})
		return h, err
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrCurveChanged, maxBuildAttempts)
}

// Invalidate drops the current hull. Use it after editing a curve that does
// not implement kernel.Versioned.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Add(1)
	c.entry.Store(nil)
}

func (c *Cache) fresh() *cacheEntry {
	e := c.entry.Load()
	if e == nil || e.gen != c.Generation() {
		return nil
	}
	return e
}
