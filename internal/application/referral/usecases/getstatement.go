package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/biztime"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// legacyPayoutDivisor derives a payout rate for rows stored before rates were recorded.
var legacyPayoutDivisor = decimal.NewFromInt(5)

// GetStatementUseCase lists the referral earnings of an owner over a date range.
type GetStatementUseCase struct {
	repo        referral.Repository
	scales      referral.ScaleLookup
	altCurrency string
	now         func() time.Time
	logger      logger.Interface
}

// NewGetStatementUseCase creates a new GetStatementUseCase
func NewGetStatementUseCase(repo referral.Repository, scales referral.ScaleLookup, altCurrency string, logger logger.Interface) *GetStatementUseCase {
	return &GetStatementUseCase{
		repo:        repo,
		scales:      scales,
		altCurrency: strings.ToUpper(altCurrency),
		now:         biztime.NowUTC,
		logger:      logger,
	}
}

// Execute defaults Start to the first day of the current month and Until to
// one month after Start.
func (uc *GetStatementUseCase) Execute(ctx context.Context, query dto.StatementQuery) ([]*dto.StatementEntry, error) {
	start := query.Start
	if start.IsZero() {
		start = biztime.StartOfMonthUTC(uc.now())
	}
	until := query.Until
	if until.IsZero() {
		until = biztime.NextMonthUTC(start)
	}
	if !until.After(start) {
		return []*dto.StatementEntry{}, nil
	}

	records, err := uc.repo.ListByOwner(ctx, query.Owner, start, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	entries := make([]*dto.StatementEntry, 0, len(records))
	for _, rec := range records {
		entry, err := uc.entry(rec)
		if err != nil {
			uc.logger.Errorw("failed to build statement entry",
				"owner", query.Owner,
				"download_id", rec.DownloadID,
				"error", err,
			)
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (uc *GetStatementUseCase) entry(rec *referral.Record) (*dto.StatementEntry, error) {
	alt := rec.AltCurrency
	if alt == "" {
		alt = uc.altCurrency
	}
	scale, ok := uc.scales.ScaleOf(alt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", currency.ErrScaleUnavailable, alt)
	}

	amount, err := referral.ProbiToAmount(rec.Probi, scale)
	if err != nil {
		return nil, err
	}

	groupRate := rec.GroupRate
	if groupRate == "" {
		groupRate = "1"
	}
	payoutRate := rec.PayoutRate
	if payoutRate == "" {
		payoutRate = amount.DivRound(legacyPayoutDivisor, referral.DivisionPrecision).String()
	}

	return &dto.StatementEntry{
		Publisher:  rec.Publisher,
		GroupID:    rec.GroupID,
		GroupRate:  groupRate,
		PayoutRate: payoutRate,
		Amount:     amount.String(),
	}, nil
}
