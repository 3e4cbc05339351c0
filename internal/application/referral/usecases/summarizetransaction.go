package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// SummarizeTransactionUseCase totals the payouts recorded for a transaction.
// It backs the referral report consumer.
type SummarizeTransactionUseCase struct {
	repo        referral.Repository
	scales      referral.ScaleLookup
	altCurrency string
	logger      logger.Interface
}

// NewSummarizeTransactionUseCase creates a new SummarizeTransactionUseCase
func NewSummarizeTransactionUseCase(repo referral.Repository, scales referral.ScaleLookup, altCurrency string, logger logger.Interface) *SummarizeTransactionUseCase {
	return &SummarizeTransactionUseCase{
		repo:        repo,
		scales:      scales,
		altCurrency: strings.ToUpper(altCurrency),
		logger:      logger,
	}
}

// Execute returns referral.ErrReferralNotFound when the transaction has no rows.
// Excluded referrals are counted but not totalled.
func (uc *SummarizeTransactionUseCase) Execute(ctx context.Context, transactionID string) (*dto.TransactionReport, error) {
	records, err := uc.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find referrals: %w", err)
	}
	if len(records) == 0 {
		return nil, referral.ErrReferralNotFound
	}

	scale, ok := uc.scales.ScaleOf(uc.altCurrency)
	if !ok {
		return nil, fmt.Errorf("%w: %s", currency.ErrScaleUnavailable, uc.altCurrency)
	}

	total := decimal.Zero
	byPublisher := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.Exclude {
			continue
		}
		if rec.AltCurrency != "" && !strings.EqualFold(rec.AltCurrency, uc.altCurrency) {
			uc.logger.Warnw("skipping referral in foreign altcurrency",
				"transaction_id", transactionID,
				"download_id", rec.DownloadID,
				"altcurrency", rec.AltCurrency,
			)
			continue
		}
		amount, err := referral.ProbiToAmount(rec.Probi, scale)
		if err != nil {
			return nil, fmt.Errorf("referral %s: %w", rec.DownloadID, err)
		}
		total = total.Add(amount)
		byPublisher[rec.Publisher] = byPublisher[rec.Publisher].Add(amount)
	}

	report := &dto.TransactionReport{
		TransactionID: transactionID,
		Referrals:     len(records),
		ByPublisher:   make(map[string]string, len(byPublisher)),
		Total:         total.String(),
		AltCurrency:   uc.altCurrency,
	}
	for publisher, amount := range byPublisher {
		report.ByPublisher[publisher] = amount.String()
	}
	return report, nil
}
