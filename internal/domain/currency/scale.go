package currency

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed scales.yaml
var defaultScalesYAML []byte

// Scale is the power-of-ten factor between a token unit and its smallest unit.
type Scale struct {
	raw    string
	factor decimal.Decimal
}

// ParseScale parses a scale literal such as "1e18" or "100000000".
func ParseScale(raw string) (Scale, error) {
	raw = strings.TrimSpace(raw)
	factor, err := decimal.NewFromString(raw)
	if err != nil {
		return Scale{}, fmt.Errorf("invalid scale %q: %w", raw, err)
	}
	if !factor.IsPositive() || !factor.Equal(factor.Truncate(0)) {
		return Scale{}, fmt.Errorf("invalid scale %q: must be a positive integer", raw)
	}
	return Scale{raw: raw, factor: factor}, nil
}

// String returns the scale as configured, e.g. "1e18".
func (s Scale) String() string {
	return s.raw
}

// Factor returns the scale as a decimal multiplier.
func (s Scale) Factor() decimal.Decimal {
	return s.factor
}

// ScaleRegistry maps token symbols to their fixed-point scale.
// Lookups are case-insensitive.
type ScaleRegistry struct {
	mu     sync.RWMutex
	scales map[string]Scale
}

// NewScaleRegistry returns a registry holding the built-in scales plus overrides.
func NewScaleRegistry(overrides map[string]string) (*ScaleRegistry, error) {
	defaults := make(map[string]string)
	if err := yaml.Unmarshal(defaultScalesYAML, &defaults); err != nil {
		return nil, fmt.Errorf("failed to parse built-in scales: %w", err)
	}

	r := &ScaleRegistry{scales: make(map[string]Scale, len(defaults)+len(overrides))}
	for symbol, raw := range defaults {
		if err := r.Register(symbol, raw); err != nil {
			return nil, err
		}
	}
	for symbol, raw := range overrides {
		if err := r.Register(symbol, raw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces the scale of symbol.
func (r *ScaleRegistry) Register(symbol, raw string) error {
	key := normalizeSymbol(symbol)
	if key == "" {
		return fmt.Errorf("scale symbol is empty")
	}
	scale, err := ParseScale(raw)
	if err != nil {
		return fmt.Errorf("scale for %s: %w", key, err)
	}

	r.mu.Lock()
	r.scales[key] = scale
	r.mu.Unlock()
	return nil
}

// ScaleOf returns the scale of symbol. Unknown or empty symbols report false.
func (r *ScaleRegistry) ScaleOf(symbol string) (Scale, bool) {
	key := normalizeSymbol(symbol)
	if key == "" {
		return Scale{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	scale, ok := r.scales[key]
	return scale, ok
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
