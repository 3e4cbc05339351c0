package usecases

import "context"

// ReferralEventPublisher announces processed referral batches.
type ReferralEventPublisher interface {
	PublishReferralReport(ctx context.Context, transactionID string) error
}

// ReferralMetrics records pipeline counters.
type ReferralMetrics interface {
	IncReferralsReceived(n int)
	ObserveBatch(matched, upserted, modified, failed int)
}

// TransactionRunner runs fn in a database transaction carried by its context.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
