package exchangerate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/shared/biztime"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// CacheState describes the cache and debounce state of one base currency.
type CacheState string

const (
	StateEmpty        CacheState = "empty"
	StateFresh        CacheState = "fresh"
	StateStale        CacheState = "stale"
	StateStaleCooling CacheState = "stale_cooling"
	StateFetching     CacheState = "fetching"
)

// Lookup results reported to the CacheObserver.
const (
	LookupHit         = "hit"
	LookupStale       = "stale"
	LookupCoolingMiss = "cooling_miss"
	LookupRefreshed   = "refreshed"
	LookupFailed      = "failed"
)

// CacheObserver receives cache lookup and provider fetch outcomes.
type CacheObserver interface {
	ObserveLookup(base, result string)
	ObserveFetch(base string, duration time.Duration, err error)
}

// CacheConfig configures a RateCache.
type CacheConfig struct {
	FreshFor        time.Duration
	FailureCooldown time.Duration
	FetchTimeout    time.Duration
}

type cacheEntry struct {
	snapshot    *currency.Snapshot
	lastUpdated time.Time
}

// RateCache serves rate snapshots per base currency. Concurrent misses for the
// same base share one provider call; failed fetches are debounced.
type RateCache struct {
	provider  currency.RateProvider
	debouncer *FailureDebouncer
	cfg       CacheConfig
	logger    logger.Interface
	observer  CacheObserver
	now       func() time.Time

	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	fetching map[string]bool

	fetchGroup singleflight.Group
}

// CacheOption customizes a RateCache.
type CacheOption func(*RateCache)

// WithClock replaces the clock used for freshness and cooldown checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *RateCache) {
		c.now = now
	}
}

// WithObserver attaches an observer for lookups and fetches.
func WithObserver(observer CacheObserver) CacheOption {
	return func(c *RateCache) {
		c.observer = observer
	}
}

// NewRateCache creates a RateCache in front of provider.
func NewRateCache(provider currency.RateProvider, cfg CacheConfig, log logger.Interface, opts ...CacheOption) *RateCache {
	c := &RateCache{
		provider:  provider,
		debouncer: NewFailureDebouncer(cfg.FailureCooldown),
		cfg:       cfg,
		logger:    log,
		now:       biztime.NowUTC,
		entries:   make(map[string]*cacheEntry),
		fetching:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ currency.RateSource = (*RateCache)(nil)

// Get returns the snapshot for base. A fresh entry is returned as is. While a
// recent failure is cooling down the stale entry is served, or ErrRateFetchFailure
// when there is none, without calling the provider.
func (c *RateCache) Get(ctx context.Context, base string) (*currency.Snapshot, error) {
	key := strings.ToUpper(strings.TrimSpace(base))
	now := c.now()

	entry := c.entry(key)
	if entry != nil && c.isFresh(entry, now) {
		c.observeLookup(key, LookupHit)
		return entry.snapshot, nil
	}

	if c.debouncer.Cooling(key, now) {
		if entry != nil {
			c.observeLookup(key, LookupStale)
			return entry.snapshot, nil
		}
		c.observeLookup(key, LookupCoolingMiss)
		return nil, fmt.Errorf("%w: %s is cooling down after a failed fetch", currency.ErrRateFetchFailure, key)
	}

	result, err, _ := c.fetchGroup.Do(key, func() (any, error) {
		return c.refresh(ctx, key, false)
	})
	if err != nil {
		c.observeLookup(key, LookupFailed)
		return nil, err
	}
	return result.(*currency.Snapshot), nil
}

// refresh runs inside the single-flight group for key.
func (c *RateCache) refresh(ctx context.Context, key string, force bool) (*currency.Snapshot, error) {
	// Another flight may have stored a fresh entry or recorded a failure since
	// the caller checked.
	now := c.now()
	entry := c.entry(key)
	if !force && entry != nil && c.isFresh(entry, now) {
		c.observeLookup(key, LookupHit)
		return entry.snapshot, nil
	}
	if c.debouncer.Cooling(key, now) {
		if entry != nil {
			c.observeLookup(key, LookupStale)
			return entry.snapshot, nil
		}
		c.observeLookup(key, LookupCoolingMiss)
		return nil, fmt.Errorf("%w: %s is cooling down after a failed fetch", currency.ErrRateFetchFailure, key)
	}

	c.setFetching(key, true)
	defer c.setFetching(key, false)

	// Waiters share this fetch, so it must not die with the first caller.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
	defer cancel()

	started := c.now()
	snapshot, err := c.provider.FetchRates(fetchCtx, key)
	if err == nil && snapshot == nil {
		err = fmt.Errorf("provider returned no snapshot")
	}
	if c.observer != nil {
		c.observer.ObserveFetch(key, c.now().Sub(started), err)
	}

	if err != nil {
		c.debouncer.RecordFailure(key, c.now())

		if entry := c.entry(key); entry != nil {
			c.logger.Warnw("failed to refresh rates, serving stale snapshot",
				"base", key,
				"error", err,
				"last_updated", entry.lastUpdated,
				"cooldown", c.debouncer.Cooldown(),
			)
			c.observeLookup(key, LookupStale)
			return entry.snapshot, nil
		}

		c.logger.Errorw("failed to fetch rates with no cached snapshot",
			"base", key,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s: %w", currency.ErrRateFetchFailure, key, err)
	}

	c.store(key, snapshot)
	c.debouncer.Clear(key)
	c.observeLookup(key, LookupRefreshed)
	return snapshot, nil
}

// Prime stores snapshot as the current entry of its base currency.
func (c *RateCache) Prime(snapshot *currency.Snapshot) {
	c.store(snapshot.Base(), snapshot)
	c.debouncer.Clear(snapshot.Base())
}

// Refresh fetches base even when the cached entry is still fresh. While a
// failure is cooling down it behaves like Get.
func (c *RateCache) Refresh(ctx context.Context, base string) (*currency.Snapshot, error) {
	key := strings.ToUpper(strings.TrimSpace(base))
	if c.debouncer.Cooling(key, c.now()) {
		return c.Get(ctx, key)
	}

	result, err, _ := c.fetchGroup.Do(key, func() (any, error) {
		return c.refresh(ctx, key, true)
	})
	if err != nil {
		return nil, err
	}
	return result.(*currency.Snapshot), nil
}

// State reports the cache state of base.
func (c *RateCache) State(base string) CacheState {
	key := strings.ToUpper(strings.TrimSpace(base))
	now := c.now()

	c.mu.RLock()
	fetching := c.fetching[key]
	entry := c.entries[key]
	c.mu.RUnlock()

	switch {
	case fetching:
		return StateFetching
	case entry != nil && c.isFresh(entry, now):
		return StateFresh
	case c.debouncer.Cooling(key, now):
		return StateStaleCooling
	case entry != nil:
		return StateStale
	default:
		return StateEmpty
	}
}

func (c *RateCache) isFresh(entry *cacheEntry, now time.Time) bool {
	return now.Sub(entry.lastUpdated) < c.cfg.FreshFor
}

func (c *RateCache) entry(key string) *cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

func (c *RateCache) store(key string, snapshot *currency.Snapshot) {
	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		snapshot:    snapshot,
		lastUpdated: snapshot.FetchedAt(),
	}
	c.mu.Unlock()
}

func (c *RateCache) setFetching(key string, fetching bool) {
	c.mu.Lock()
	if fetching {
		c.fetching[key] = true
	} else {
		delete(c.fetching, key)
	}
	c.mu.Unlock()
}

func (c *RateCache) observeLookup(key, result string) {
	if c.observer != nil {
		c.observer.ObserveLookup(key, result)
	}
}
