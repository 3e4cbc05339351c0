package referral

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/domain/currency"
)

// DivisionPrecision is the number of decimal places kept when dividing rates.
const DivisionPrecision = 20

// ScaleLookup resolves the fixed-point scale of a token.
type ScaleLookup interface {
	ScaleOf(symbol string) (currency.Scale, bool)
}

// Calculator prices referrals. It is a pure function of its inputs.
type Calculator struct {
	scales ScaleLookup
}

// NewCalculator creates a Calculator.
func NewCalculator(scales ScaleLookup) *Calculator {
	return &Calculator{scales: scales}
}

// Compute prices ref for token using the resolved group and one rate snapshot.
// probi is rounded once, after the final multiplication.
func (c *Calculator) Compute(ref *Referral, res Resolution, snapshot *currency.Snapshot, token string) (*Payout, error) {
	token = strings.ToUpper(token)

	groupRate, err := snapshot.Rate(res.Currency)
	if err != nil {
		return nil, err
	}
	if groupRate.IsZero() {
		return nil, fmt.Errorf("%w: zero rate for %s", currency.ErrRateUnavailable, res.Currency)
	}

	normalized := res.Amount.DivRound(groupRate, DivisionPrecision)

	payoutRate, err := snapshot.Rate(token)
	if err != nil {
		return nil, err
	}

	scale, ok := c.scales.ScaleOf(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", currency.ErrScaleUnavailable, token)
	}

	tokenAmount := payoutRate.Mul(normalized)
	probi := tokenAmount.Mul(scale.Factor()).Round(0)

	return &Payout{
		DownloadID: ref.DownloadID,
		GroupID:    res.GroupID,
		PayoutRate: payoutRate.String(),
		GroupRate:  groupRate.String(),
		Probi:      probi.StringFixed(0),
		Amount:     tokenAmount.String(),
	}, nil
}

// ProbiToAmount converts a probi string back into token units.
func ProbiToAmount(probi string, scale currency.Scale) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(probi)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid probi %q: %w", probi, err)
	}
	return value.DivRound(scale.Factor(), DivisionPrecision), nil
}
