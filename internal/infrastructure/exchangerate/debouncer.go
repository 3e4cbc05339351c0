package exchangerate

import (
	"sync"
	"time"
)

// FailureDebouncer remembers the last failed fetch per key and suppresses
// further fetches until the cooldown has elapsed.
type FailureDebouncer struct {
	mu          sync.Mutex
	cooldown    time.Duration
	lastFailure map[string]time.Time
}

// NewFailureDebouncer creates a debouncer with the given cooldown.
func NewFailureDebouncer(cooldown time.Duration) *FailureDebouncer {
	return &FailureDebouncer{
		cooldown:    cooldown,
		lastFailure: make(map[string]time.Time),
	}
}

// Cooldown returns the configured cooldown.
func (d *FailureDebouncer) Cooldown() time.Duration {
	return d.cooldown
}

// Cooling reports whether key failed less than cooldown before now.
func (d *FailureDebouncer) Cooling(key string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	at, ok := d.lastFailure[key]
	if !ok {
		return false
	}
	return now.Sub(at) < d.cooldown
}

// RecordFailure marks key as failed at the given time.
func (d *FailureDebouncer) RecordFailure(key string, at time.Time) {
	d.mu.Lock()
	d.lastFailure[key] = at
	d.mu.Unlock()
}

// Clear forgets the failure of key.
func (d *FailureDebouncer) Clear(key string) {
	d.mu.Lock()
	delete(d.lastFailure, key)
	d.mu.Unlock()
}

// LastFailure returns when key last failed, if it is still remembered.
func (d *FailureDebouncer) LastFailure(key string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at, ok := d.lastFailure[key]
	return at, ok
}
