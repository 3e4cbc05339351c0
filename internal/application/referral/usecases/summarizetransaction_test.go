package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

func TestSummarizeTransaction(t *testing.T) {
	scales, err := currency.NewScaleRegistry(nil)
	require.NoError(t, err)

	repo := newMemoryReferralRepository()
	repo.records["d-1"] = &referral.Record{TransactionID: "tx-1", DownloadID: "d-1", Publisher: "a.com", AltCurrency: "BAT", Probi: "20000000000000000000"}
	repo.records["d-2"] = &referral.Record{TransactionID: "tx-1", DownloadID: "d-2", Publisher: "a.com", AltCurrency: "BAT", Probi: "500000000000000000"}
	repo.records["d-3"] = &referral.Record{TransactionID: "tx-1", DownloadID: "d-3", Publisher: "b.com", AltCurrency: "BAT", Probi: "40000000000000000000"}
	repo.records["d-4"] = &referral.Record{TransactionID: "tx-1", DownloadID: "d-4", Publisher: "b.com", AltCurrency: "BAT", Probi: "1", Exclude: true}
	repo.records["d-5"] = &referral.Record{TransactionID: "tx-2", DownloadID: "d-5", Publisher: "c.com", AltCurrency: "BAT", Probi: "1"}

	uc := NewSummarizeTransactionUseCase(repo, scales, "bat", logger.NewNopLogger())

	report, err := uc.Execute(context.Background(), "tx-1")
	require.NoError(t, err)

	assert.Equal(t, 4, report.Referrals)
	assert.Equal(t, "60.5", report.Total)
	assert.Equal(t, "BAT", report.AltCurrency)
	assert.Equal(t, map[string]string{"a.com": "20.5", "b.com": "40"}, report.ByPublisher)

	_, err = uc.Execute(context.Background(), "tx-missing")
	assert.ErrorIs(t, err, referral.ErrReferralNotFound)
}
