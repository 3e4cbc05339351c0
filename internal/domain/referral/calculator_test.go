package referral

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/referrals/internal/domain/currency"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	scales, err := currency.NewScaleRegistry(nil)
	require.NoError(t, err)
	return NewCalculator(scales)
}

func newTestSnapshot(t *testing.T, rates map[string]string) *currency.Snapshot {
	t.Helper()
	snap, err := currency.NewSnapshot("USD", rates, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return snap
}

func TestCompute_ScenarioA(t *testing.T) {
	calc := newTestCalculator(t)
	snap := newTestSnapshot(t, map[string]string{"USD": "1", "BAT": "0.25"})

	payout, err := calc.Compute(&Referral{DownloadID: testDownload}, Resolution{
		Amount:   decimal.NewFromInt(5),
		Currency: "USD",
	}, snap, "BAT")
	require.NoError(t, err)

	assert.Equal(t, &Payout{
		DownloadID: testDownload,
		GroupID:    "",
		PayoutRate: "0.25",
		GroupRate:  "1",
		Probi:      "1250000000000000000",
		Amount:     "1.25",
	}, payout)
}

func TestCompute_Deterministic(t *testing.T) {
	calc := newTestCalculator(t)
	snap := newTestSnapshot(t, map[string]string{"USD": "1", "EUR": "0.87123", "BAT": "4.0815"})
	res := Resolution{GroupID: testGroupID, Amount: decimal.RequireFromString("7.5"), Currency: "EUR"}
	ref := &Referral{DownloadID: testDownload}

	first, err := calc.Compute(ref, res, snap, "bat")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := calc.Compute(ref, res, snap, "BAT")
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestCompute_ProbiMatchesAmount(t *testing.T) {
	calc := newTestCalculator(t)
	snap := newTestSnapshot(t, map[string]string{"USD": "1", "GBP": "0.7731", "BAT": "3.33333", "BTC": "0.000153"})

	for _, token := range []string{"BAT", "BTC"} {
		payout, err := calc.Compute(&Referral{}, Resolution{Amount: decimal.NewFromInt(3), Currency: "GBP"}, snap, token)
		require.NoError(t, err)

		probi := decimal.RequireFromString(payout.Probi)
		assert.True(t, probi.Equal(probi.Truncate(0)), "probi must be integer valued")

		scale, _ := currency.NewScaleRegistry(nil)
		s, _ := scale.ScaleOf(token)
		amount := decimal.RequireFromString(payout.Amount)
		assert.True(t, probi.Equal(amount.Mul(s.Factor()).Round(0)))
	}
}

func TestCompute_Errors(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name    string
		rates   map[string]string
		cur     string
		token   string
		wantErr error
	}{
		{"missing group currency", map[string]string{"BAT": "0.25"}, "EUR", "BAT", currency.ErrRateUnavailable},
		{"zero group rate", map[string]string{"USD": "0", "BAT": "0.25"}, "USD", "BAT", currency.ErrRateUnavailable},
		{"missing token rate", map[string]string{"USD": "1"}, "USD", "BAT", currency.ErrRateUnavailable},
		{"unknown scale", map[string]string{"USD": "1", "XYZ": "2"}, "USD", "XYZ", currency.ErrScaleUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Compute(&Referral{}, Resolution{Amount: decimal.NewFromInt(5), Currency: tt.cur},
				newTestSnapshot(t, tt.rates), tt.token)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestProbiToAmount(t *testing.T) {
	scales, err := currency.NewScaleRegistry(nil)
	require.NoError(t, err)
	scale, _ := scales.ScaleOf("BAT")

	amount, err := ProbiToAmount("1250000000000000000", scale)
	require.NoError(t, err)
	assert.Equal(t, "1.25", amount.String())

	_, err = ProbiToAmount("abc", scale)
	assert.Error(t, err)
}
