package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
)

type mockRateSource struct {
	getFunc func(ctx context.Context, base string) (*currency.Snapshot, error)
}

func (m *mockRateSource) Get(ctx context.Context, base string) (*currency.Snapshot, error) {
	return m.getFunc(ctx, base)
}

type mockGroupRepository struct {
	listFunc func(ctx context.Context) ([]*referral.Group, error)
}

func (m *mockGroupRepository) List(ctx context.Context) ([]*referral.Group, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx)
}

// memoryReferralRepository keeps insert-once semantics keyed by download id.
type memoryReferralRepository struct {
	records       map[string]*referral.Record
	failDownloads map[string]bool
	touches       int
	upsertsInTx   int
	listFunc      func(ctx context.Context, owner string, start, until time.Time) ([]*referral.Record, error)
}

func newMemoryReferralRepository() *memoryReferralRepository {
	return &memoryReferralRepository{
		records:       make(map[string]*referral.Record),
		failDownloads: make(map[string]bool),
	}
}

func (m *memoryReferralRepository) BulkUpsert(ctx context.Context, ops []referral.UpsertOp) (*referral.BatchResult, error) {
	if inTransaction(ctx) {
		m.upsertsInTx++
	}
	result := &referral.BatchResult{}
	for _, op := range ops {
		if m.failDownloads[op.Filter.DownloadID] {
			result.Failed++
			result.Errors = append(result.Errors, referral.ErrPersistencePartialFailure)
			continue
		}
		if _, ok := m.records[op.Filter.DownloadID]; ok {
			result.Matched++
			if op.TouchTimestamp {
				m.touches++
				result.Modified++
			}
			continue
		}
		rec := *op.SetOnInsert
		m.records[op.Filter.DownloadID] = &rec
		result.Upserted++
	}
	return result, nil
}

func (m *memoryReferralRepository) FindByTransactionID(_ context.Context, transactionID string) ([]*referral.Record, error) {
	var out []*referral.Record
	for _, rec := range m.records {
		if rec.TransactionID == transactionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryReferralRepository) ListByOwner(ctx context.Context, owner string, start, until time.Time) ([]*referral.Record, error) {
	return m.listFunc(ctx, owner, start, until)
}

type mockPublisher struct {
	published []string
	err       error
}

func (m *mockPublisher) PublishReferralReport(_ context.Context, transactionID string) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, transactionID)
	return nil
}

type mockMetrics struct {
	received int
	batches  int
	failed   int
}

func (m *mockMetrics) IncReferralsReceived(n int) { m.received += n }

func (m *mockMetrics) ObserveBatch(_, _, _, failed int) {
	m.batches++
	m.failed += failed
}

type capturedError struct {
	err   error
	extra map[string]any
}

type mockReporter struct {
	captured []capturedError
}

func (m *mockReporter) CaptureException(_ context.Context, err error, extra map[string]any) {
	m.captured = append(m.captured, capturedError{err: err, extra: extra})
}

type txMarker struct{}

// mockTxRunner runs fn with a context marking the open transaction.
type mockTxRunner struct {
	runs int
}

func (m *mockTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.runs++
	return fn(context.WithValue(ctx, txMarker{}, m.runs))
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txMarker{}).(int)
	return ok
}
