package currency

import "context"

// RateProvider fetches a fresh snapshot of rates relative to base.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) (*Snapshot, error)
}

// RateSource serves snapshots, possibly from a cache.
type RateSource interface {
	Get(ctx context.Context, base string) (*Snapshot, error)
}
