package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// CreateReferralsConfig selects the rate base and the payout token.
type CreateReferralsConfig struct {
	RateBase    string
	AltCurrency string
}

// CreateReferralsUseCase prices a referral batch and persists it idempotently.
type CreateReferralsUseCase struct {
	rates      currency.RateSource
	groups     referral.GroupRepository
	repo       referral.Repository
	txMgr      TransactionRunner
	resolver   *referral.GroupResolver
	calculator *referral.Calculator
	publisher  ReferralEventPublisher
	metrics    ReferralMetrics
	reporter   referral.ErrorReporter
	cfg        CreateReferralsConfig
	logger     logger.Interface
}

// NewCreateReferralsUseCase creates a new CreateReferralsUseCase
func NewCreateReferralsUseCase(
	rates currency.RateSource,
	groups referral.GroupRepository,
	repo referral.Repository,
	txMgr TransactionRunner,
	resolver *referral.GroupResolver,
	calculator *referral.Calculator,
	publisher ReferralEventPublisher,
	metrics ReferralMetrics,
	reporter referral.ErrorReporter,
	cfg CreateReferralsConfig,
	logger logger.Interface,
) *CreateReferralsUseCase {
	cfg.RateBase = strings.ToUpper(cfg.RateBase)
	cfg.AltCurrency = strings.ToUpper(cfg.AltCurrency)
	return &CreateReferralsUseCase{
		rates:      rates,
		groups:     groups,
		repo:       repo,
		txMgr:      txMgr,
		resolver:   resolver,
		calculator: calculator,
		publisher:  publisher,
		metrics:    metrics,
		reporter:   reporter,
		cfg:        cfg,
		logger:     logger,
	}
}

// Execute prices every referral from a single rate snapshot, then upserts the
// batch. Rate and scale faults fail the batch before anything is written.
// Partially failed persistence is reported and the batch is still acknowledged.
func (uc *CreateReferralsUseCase) Execute(ctx context.Context, cmd dto.CreateReferralsCommand) (*dto.CreateReferralsResult, error) {
	snapshot, err := uc.rates.Get(ctx, uc.cfg.RateBase)
	if err != nil {
		uc.logger.Errorw("failed to get rates for referral batch",
			"transaction_id", cmd.TransactionID,
			"base", uc.cfg.RateBase,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get rates: %w", err)
	}

	// The batch is priced against the group table it is written with.
	var result *referral.BatchResult
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		groups, err := uc.groups.List(txCtx)
		if err != nil {
			uc.logger.Errorw("failed to load referral groups", "transaction_id", cmd.TransactionID, "error", err)
			return fmt.Errorf("failed to load referral groups: %w", err)
		}
		table := referral.NewGroupTable(groups)

		items := make([]referral.PlanItem, 0, len(cmd.Referrals))
		for _, ref := range cmd.Referrals {
			resolution := uc.resolver.Resolve(txCtx, cmd.TransactionID, ref, table)

			payout, err := uc.calculator.Compute(ref, resolution, snapshot, uc.cfg.AltCurrency)
			if err != nil {
				uc.logger.Errorw("failed to price referral",
					"transaction_id", cmd.TransactionID,
					"download_id", ref.DownloadID,
					"currency", resolution.Currency,
					"error", err,
				)
				return fmt.Errorf("failed to price referral %s: %w", ref.DownloadID, err)
			}

			items = append(items, referral.PlanItem{
				TransactionID: cmd.TransactionID,
				AltCurrency:   uc.cfg.AltCurrency,
				Referral:      ref,
				Payout:        payout,
			})
		}

		result, err = uc.repo.BulkUpsert(txCtx, referral.PlanUpserts(items))
		if err != nil {
			return fmt.Errorf("failed to persist referrals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.OK() {
		uc.reporter.CaptureException(ctx, referral.ErrPersistencePartialFailure, map[string]any{
			"transactionId": cmd.TransactionID,
			"matched":       result.Matched,
			"upserted":      result.Upserted,
			"failed":        result.Failed,
		})
	}

	if err := uc.publisher.PublishReferralReport(ctx, cmd.TransactionID); err != nil {
		return nil, fmt.Errorf("failed to publish referral report: %w", err)
	}

	uc.metrics.IncReferralsReceived(result.Upserted)
	uc.metrics.ObserveBatch(result.Matched, result.Upserted, result.Modified, result.Failed)

	uc.logger.Infow("referral batch processed",
		"transaction_id", cmd.TransactionID,
		"received", len(cmd.Referrals),
		"upserted", result.Upserted,
		"matched", result.Matched,
		"failed", result.Failed,
		"rates_fetched_at", snapshot.FetchedAt(),
	)

	return &dto.CreateReferralsResult{
		TransactionID: cmd.TransactionID,
		Received:      len(cmd.Referrals),
		Upserted:      result.Upserted,
		Matched:       result.Matched,
		Failed:        result.Failed,
	}, nil
}
