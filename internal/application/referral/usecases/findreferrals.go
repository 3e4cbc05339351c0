package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
	"github.com/orris-inc/referrals/internal/shared/mapper"
)

// FindReferralsUseCase returns the referrals recorded under a transaction id.
type FindReferralsUseCase struct {
	repo   referral.Repository
	logger logger.Interface
}

// NewFindReferralsUseCase creates a new FindReferralsUseCase
func NewFindReferralsUseCase(repo referral.Repository, logger logger.Interface) *FindReferralsUseCase {
	return &FindReferralsUseCase{
		repo:   repo,
		logger: logger,
	}
}

// Execute returns referral.ErrReferralNotFound when nothing matches.
func (uc *FindReferralsUseCase) Execute(ctx context.Context, transactionID string) ([]*dto.ReferralSummary, error) {
	records, err := uc.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find referrals: %w", err)
	}
	if len(records) == 0 {
		return nil, referral.ErrReferralNotFound
	}
	return mapper.MapSlice(records, dto.ToReferralSummary), nil
}
