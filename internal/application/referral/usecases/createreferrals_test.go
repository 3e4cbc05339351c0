package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

const testGroupID = "e48f310b-0e81-4b39-a836-4dda32d7df74"

type createFixture struct {
	rates     *mockRateSource
	groups    *mockGroupRepository
	repo      *memoryReferralRepository
	tx        *mockTxRunner
	publisher *mockPublisher
	metrics   *mockMetrics
	reporter  *mockReporter
	uc        *CreateReferralsUseCase
}

func testSnapshot(t *testing.T) *currency.Snapshot {
	t.Helper()
	snap, err := currency.NewSnapshot("USD", map[string]string{
		"USD": "1",
		"EUR": "0.8",
		"BAT": "4",
	}, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return snap
}

func newCreateFixture(t *testing.T) *createFixture {
	t.Helper()

	scales, err := currency.NewScaleRegistry(nil)
	require.NoError(t, err)

	snap := testSnapshot(t)
	f := &createFixture{
		rates: &mockRateSource{getFunc: func(_ context.Context, base string) (*currency.Snapshot, error) {
			return snap, nil
		}},
		groups: &mockGroupRepository{listFunc: func(context.Context) ([]*referral.Group, error) {
			return []*referral.Group{{
				ID:       testGroupID,
				Name:     "Group 1",
				Currency: "EUR",
				Amount:   decimal.NewFromInt(8),
			}}, nil
		}},
		repo:      newMemoryReferralRepository(),
		tx:        &mockTxRunner{},
		publisher: &mockPublisher{},
		metrics:   &mockMetrics{},
		reporter:  &mockReporter{},
	}

	resolver := referral.NewGroupResolver(referral.ResolverConfig{
		DefaultAmount:   decimal.NewFromInt(5),
		DefaultCurrency: "USD",
		Cutoff:          time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
	}, f.reporter)

	f.uc = NewCreateReferralsUseCase(
		f.rates,
		f.groups,
		f.repo,
		f.tx,
		resolver,
		referral.NewCalculator(scales),
		f.publisher,
		f.metrics,
		f.reporter,
		CreateReferralsConfig{RateBase: "usd", AltCurrency: "bat"},
		logger.NewNopLogger(),
	)
	return f
}

func testCommand() dto.CreateReferralsCommand {
	downloaded := time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC)
	return dto.CreateReferralsCommand{
		TransactionID: "tx-1",
		Referrals: []*referral.Referral{
			{
				DownloadID: "d-default",
				OwnerID:    "publishers#uuid:owner",
				ChannelID:  "example.com",
				Platform:   "winx64",
				Finalized:  time.Date(2019, 7, 2, 0, 0, 0, 0, time.UTC),
			},
			{
				DownloadID:        "d-group",
				OwnerID:           "publishers#uuid:owner",
				ChannelID:         "example.com",
				Platform:          "android",
				Finalized:         time.Date(2019, 7, 2, 0, 0, 0, 0, time.UTC),
				DownloadTimestamp: &downloaded,
				GroupID:           testGroupID,
			},
		},
	}
}

func TestCreateReferrals_PricesAndPersists(t *testing.T) {
	f := newCreateFixture(t)

	result, err := f.uc.Execute(context.Background(), testCommand())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Received)
	assert.Equal(t, 2, result.Upserted)
	assert.Equal(t, 0, result.Failed)

	def := f.repo.records["d-default"]
	require.NotNil(t, def)
	assert.Equal(t, "20000000000000000000", def.Probi)
	assert.Equal(t, "4", def.PayoutRate)
	assert.Equal(t, "1", def.GroupRate)
	assert.Equal(t, "", def.GroupID)
	assert.Equal(t, "BAT", def.AltCurrency)
	assert.Equal(t, "tx-1", def.TransactionID)

	// 8 EUR / 0.8 = 10 USD, at 4 BAT per USD.
	grp := f.repo.records["d-group"]
	require.NotNil(t, grp)
	assert.Equal(t, "40000000000000000000", grp.Probi)
	assert.Equal(t, "0.8", grp.GroupRate)
	assert.Equal(t, testGroupID, grp.GroupID)

	assert.Equal(t, []string{"tx-1"}, f.publisher.published)
	assert.Equal(t, 2, f.metrics.received)
	assert.Empty(t, f.reporter.captured)
}

func TestCreateReferrals_GroupsAndUpsertShareTransaction(t *testing.T) {
	f := newCreateFixture(t)
	list := f.groups.listFunc
	groupsInTx := false
	f.groups.listFunc = func(ctx context.Context) ([]*referral.Group, error) {
		groupsInTx = inTransaction(ctx)
		return list(ctx)
	}

	_, err := f.uc.Execute(context.Background(), testCommand())
	require.NoError(t, err)

	assert.Equal(t, 1, f.tx.runs)
	assert.True(t, groupsInTx)
	assert.Equal(t, 1, f.repo.upsertsInTx)
}

func TestCreateReferrals_RedeliveryIsIdempotent(t *testing.T) {
	f := newCreateFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, testCommand())
	require.NoError(t, err)
	first := *f.repo.records["d-default"]

	// A later redelivery is priced from different rates but must not rewrite values.
	changed, err := currency.NewSnapshot("USD", map[string]string{"USD": "1", "EUR": "0.5", "BAT": "9"}, time.Now())
	require.NoError(t, err)
	f.rates.getFunc = func(context.Context, string) (*currency.Snapshot, error) { return changed, nil }

	result, err := f.uc.Execute(ctx, testCommand())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Upserted)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, first, *f.repo.records["d-default"])
	assert.Equal(t, 2, f.repo.touches)
	assert.Equal(t, []string{"tx-1", "tx-1"}, f.publisher.published)
}

func TestCreateReferrals_PartialFailureIsReportedAndAcknowledged(t *testing.T) {
	f := newCreateFixture(t)
	f.repo.failDownloads["d-group"] = true

	result, err := f.uc.Execute(context.Background(), testCommand())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, f.reporter.captured, 1)
	captured := f.reporter.captured[0]
	assert.ErrorIs(t, captured.err, referral.ErrPersistencePartialFailure)
	assert.Equal(t, "tx-1", captured.extra["transactionId"])
	assert.Equal(t, 1, captured.extra["failed"])
	assert.Equal(t, []string{"tx-1"}, f.publisher.published)
	assert.Equal(t, 1, f.metrics.failed)
}

func TestCreateReferrals_RateFailureWritesNothing(t *testing.T) {
	f := newCreateFixture(t)
	f.rates.getFunc = func(context.Context, string) (*currency.Snapshot, error) {
		return nil, currency.ErrRateFetchFailure
	}

	_, err := f.uc.Execute(context.Background(), testCommand())
	require.Error(t, err)
	assert.ErrorIs(t, err, currency.ErrRateFetchFailure)
	assert.Empty(t, f.repo.records)
	assert.Empty(t, f.publisher.published)
}

func TestCreateReferrals_MissingRateFailsBatch(t *testing.T) {
	f := newCreateFixture(t)
	snap, err := currency.NewSnapshot("USD", map[string]string{"USD": "1", "BAT": "4"}, time.Now())
	require.NoError(t, err)
	f.rates.getFunc = func(context.Context, string) (*currency.Snapshot, error) { return snap, nil }

	_, err = f.uc.Execute(context.Background(), testCommand())
	require.Error(t, err)
	assert.ErrorIs(t, err, currency.ErrRateUnavailable)
	assert.Empty(t, f.repo.records)
}

func TestCreateReferrals_UnknownGroupFallsBackToDefault(t *testing.T) {
	f := newCreateFixture(t)
	f.groups.listFunc = func(context.Context) ([]*referral.Group, error) { return nil, nil }

	_, err := f.uc.Execute(context.Background(), testCommand())
	require.NoError(t, err)

	grp := f.repo.records["d-group"]
	require.NotNil(t, grp)
	assert.Equal(t, "20000000000000000000", grp.Probi)
	assert.Equal(t, "", grp.GroupID)

	require.Len(t, f.reporter.captured, 1)
	assert.ErrorIs(t, f.reporter.captured[0].err, referral.ErrGroupNotFound)
}

func TestCreateReferrals_PublishFailureIsReturned(t *testing.T) {
	f := newCreateFixture(t)
	f.publisher.err = errors.New("redis down")

	_, err := f.uc.Execute(context.Background(), testCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}
