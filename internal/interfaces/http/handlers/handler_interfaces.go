package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
)

// Use case interfaces for ReferralHandler

type createReferralsUseCase interface {
	Execute(ctx context.Context, cmd dto.CreateReferralsCommand) (*dto.CreateReferralsResult, error)
}

type findReferralsUseCase interface {
	Execute(ctx context.Context, transactionID string) ([]*dto.ReferralSummary, error)
}

type listGroupsUseCase interface {
	Execute(ctx context.Context, query dto.ListGroupsQuery) ([]dto.GroupView, error)
}

type getStatementUseCase interface {
	Execute(ctx context.Context, query dto.StatementQuery) ([]*dto.StatementEntry, error)
}

// Converter interface for RateHandler

type rateConverter interface {
	Snapshot(ctx context.Context, base string) (*currency.Snapshot, error)
	Ratio(ctx context.Context, base, quote string) (decimal.Decimal, error)
	FiatToAlt(ctx context.Context, fiat string, amount decimal.Decimal, alt string) (string, bool, error)
	AltToFiat(ctx context.Context, alt, probi, fiat string) (decimal.Decimal, error)
}
