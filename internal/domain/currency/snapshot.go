package currency

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable point-in-time set of exchange rates for one base currency.
// Rates are kept as the provider sent them so cached payloads pass through untouched.
type Snapshot struct {
	base      string
	rates     map[string]string
	fetchedAt time.Time
}

// NewSnapshot validates and copies rates into a new Snapshot.
func NewSnapshot(base string, rates map[string]string, fetchedAt time.Time) (*Snapshot, error) {
	base = normalizeSymbol(base)
	if base == "" {
		return nil, fmt.Errorf("snapshot base currency is empty")
	}

	copied := make(map[string]string, len(rates))
	for symbol, raw := range rates {
		key := normalizeSymbol(symbol)
		if key == "" {
			continue
		}
		raw = strings.TrimSpace(raw)
		if _, err := decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %q", key, raw)
		}
		copied[key] = raw
	}

	return &Snapshot{
		base:      base,
		rates:     copied,
		fetchedAt: fetchedAt.UTC(),
	}, nil
}

// Base returns the upper-cased base currency.
func (s *Snapshot) Base() string {
	return s.base
}

// FetchedAt returns when the provider produced this snapshot.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Rates returns a copy of the raw rate strings keyed by symbol.
func (s *Snapshot) Rates() map[string]string {
	out := make(map[string]string, len(s.rates))
	for k, v := range s.rates {
		out[k] = v
	}
	return out
}

// Has reports whether the snapshot carries a rate for symbol.
func (s *Snapshot) Has(symbol string) bool {
	_, ok := s.rates[normalizeSymbol(symbol)]
	return ok
}

// Rate returns the rate of symbol relative to the base.
func (s *Snapshot) Rate(symbol string) (decimal.Decimal, error) {
	key := normalizeSymbol(symbol)
	raw, ok := s.rates[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s missing from %s snapshot", ErrRateUnavailable, key, s.base)
	}
	// Validated in NewSnapshot.
	return decimal.RequireFromString(raw), nil
}

// Missing returns the symbols from keys that the snapshot does not carry.
func (s *Snapshot) Missing(keys []string) []string {
	var missing []string
	for _, k := range keys {
		if !s.Has(k) {
			missing = append(missing, normalizeSymbol(k))
		}
	}
	return missing
}
