// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used for
// calculating period boundaries such as the start of a statement month.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "UTC"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
// If tz is empty, defaults to UTC.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, initializing the default on first use.
func Location() *time.Location {
	if err := Init(""); err != nil {
		panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfMonthUTC returns the first instant of t's month in the business timezone, as UTC.
func StartOfMonthUTC(t time.Time) time.Time {
	bizTime := t.In(Location())
	return time.Date(bizTime.Year(), bizTime.Month(), 1, 0, 0, 0, 0, Location()).UTC()
}

// NextMonthUTC returns the same wall-clock instant one calendar month later in the business timezone.
func NextMonthUTC(t time.Time) time.Time {
	return t.In(Location()).AddDate(0, 1, 0).UTC()
}
