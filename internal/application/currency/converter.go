// Package currency converts amounts between fiat currencies and tokens using cached rates.
package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
)

// fiatPlaces is the number of decimals kept for rounded fiat amounts.
const fiatPlaces = 2

// Converter prices conversions from one snapshot of the configured base currency.
type Converter struct {
	rates  currency.RateSource
	scales referral.ScaleLookup
	base   string
}

// NewConverter creates a Converter reading snapshots of base from rates.
func NewConverter(rates currency.RateSource, scales referral.ScaleLookup, base string) *Converter {
	return &Converter{
		rates:  rates,
		scales: scales,
		base:   strings.ToUpper(base),
	}
}

// Snapshot returns the current snapshot of base.
func (c *Converter) Snapshot(ctx context.Context, base string) (*currency.Snapshot, error) {
	return c.rates.Get(ctx, base)
}

// Ratio returns how many units of quote one unit of base is worth.
func (c *Converter) Ratio(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	snapshot, err := c.rates.Get(ctx, base)
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.Rate(quote)
}

// FiatToAlt converts amount of fiat into probi of alt. A zero amount reports
// false and no value.
func (c *Converter) FiatToAlt(ctx context.Context, fiat string, amount decimal.Decimal, alt string) (string, bool, error) {
	if amount.IsZero() {
		return "", false, nil
	}

	fiatRate, altRate, err := c.pair(ctx, fiat, alt)
	if err != nil {
		return "", false, err
	}

	scale, ok := c.scales.ScaleOf(alt)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", currency.ErrScaleUnavailable, strings.ToUpper(alt))
	}

	altAmount := amount.DivRound(fiatRate, referral.DivisionPrecision).Mul(altRate)
	return altAmount.Mul(scale.Factor()).Round(0).StringFixed(0), true, nil
}

// AltToFiat converts probi of alt into fiat, rounded to cents.
func (c *Converter) AltToFiat(ctx context.Context, alt, probi, fiat string) (decimal.Decimal, error) {
	value, err := c.AltToFiatExact(ctx, alt, probi, fiat)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Round(fiatPlaces), nil
}

// AltToFiatExact converts probi of alt into fiat without rounding.
func (c *Converter) AltToFiatExact(ctx context.Context, alt, probi, fiat string) (decimal.Decimal, error) {
	scale, ok := c.scales.ScaleOf(alt)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", currency.ErrScaleUnavailable, strings.ToUpper(alt))
	}

	amount, err := referral.ProbiToAmount(probi, scale)
	if err != nil {
		return decimal.Zero, err
	}

	fiatRate, altRate, err := c.pair(ctx, fiat, alt)
	if err != nil {
		return decimal.Zero, err
	}

	return amount.DivRound(altRate, referral.DivisionPrecision).Mul(fiatRate), nil
}

// pair returns the rates of fiat and alt relative to the configured base.
func (c *Converter) pair(ctx context.Context, fiat, alt string) (decimal.Decimal, decimal.Decimal, error) {
	snapshot, err := c.rates.Get(ctx, c.base)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	fiatRate, err := snapshot.Rate(fiat)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	altRate, err := snapshot.Rate(alt)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if fiatRate.IsZero() || altRate.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: zero rate in %s snapshot", currency.ErrRateUnavailable, c.base)
	}
	return fiatRate, altRate, nil
}
