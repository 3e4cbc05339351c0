package referral

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedError struct {
	err   error
	extra map[string]any
}

type recordingReporter struct {
	captured []capturedError
}

func (r *recordingReporter) CaptureException(_ context.Context, err error, extra map[string]any) {
	r.captured = append(r.captured, capturedError{err: err, extra: extra})
}

var (
	testCutoff   = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	testGroupID  = "e48f310b-0e81-4b39-a836-4dda32d7df74"
	testDownload = "a1b2c3d4-0000-4000-8000-000000000001"
)

func newTestResolver(reporter ErrorReporter) *GroupResolver {
	return NewGroupResolver(ResolverConfig{
		DefaultAmount:   decimal.NewFromInt(5),
		DefaultCurrency: "usd",
		Cutoff:          testCutoff,
	}, reporter)
}

func testTable() GroupTable {
	return NewGroupTable([]*Group{{
		ID:       testGroupID,
		Name:     "Group 1",
		Codes:    []string{"US", "CA"},
		Currency: "eur",
		Amount:   decimal.NewFromInt(7),
	}})
}

func at(t time.Time) *time.Time { return &t }

func TestResolve_ExplicitGroupAfterCutoff(t *testing.T) {
	reporter := &recordingReporter{}
	resolver := newTestResolver(reporter)

	res := resolver.Resolve(context.Background(), "tx-1", &Referral{
		DownloadID:        testDownload,
		GroupID:           testGroupID,
		DownloadTimestamp: at(testCutoff.Add(time.Hour)),
	}, testTable())

	assert.Equal(t, testGroupID, res.GroupID)
	assert.Equal(t, "EUR", res.Currency)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(7)))
	assert.Empty(t, reporter.captured)
}

func TestResolve_CutoffIsInclusive(t *testing.T) {
	resolver := newTestResolver(&recordingReporter{})

	res := resolver.Resolve(context.Background(), "tx-1", &Referral{
		GroupID:           testGroupID,
		DownloadTimestamp: at(testCutoff),
	}, testTable())

	assert.Equal(t, testGroupID, res.GroupID)
}

func TestResolve_BeforeCutoffIgnoresExplicitGroup(t *testing.T) {
	reporter := &recordingReporter{}
	resolver := newTestResolver(reporter)

	for _, groupID := range []string{testGroupID, "00000000-0000-4000-8000-000000000000"} {
		res := resolver.Resolve(context.Background(), "tx-1", &Referral{
			GroupID:           groupID,
			DownloadTimestamp: at(testCutoff.Add(-time.Second)),
		}, testTable())

		assert.Equal(t, "", res.GroupID)
		assert.Equal(t, "USD", res.Currency)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(5)))
	}
	assert.Empty(t, reporter.captured)
}

func TestResolve_UnknownGroupReportsAndFallsBack(t *testing.T) {
	reporter := &recordingReporter{}
	resolver := newTestResolver(reporter)
	missing := "00000000-0000-4000-8000-000000000000"

	res := resolver.Resolve(context.Background(), "tx-9", &Referral{
		DownloadID:        testDownload,
		GroupID:           missing,
		DownloadTimestamp: at(testCutoff.Add(24 * time.Hour)),
	}, testTable())

	assert.Equal(t, resolver.Default(), res)
	require.Len(t, reporter.captured, 1)
	assert.True(t, errors.Is(reporter.captured[0].err, ErrGroupNotFound))
	assert.Equal(t, map[string]any{
		"transactionId": "tx-9",
		"downloadId":    testDownload,
		"groupId":       missing,
	}, reporter.captured[0].extra)
}

func TestResolve_NoExplicitGroupOrTimestamp(t *testing.T) {
	resolver := newTestResolver(nil)

	assert.Equal(t, resolver.Default(), resolver.Resolve(context.Background(), "tx", &Referral{
		DownloadTimestamp: at(testCutoff.Add(time.Hour)),
	}, testTable()))

	assert.Equal(t, resolver.Default(), resolver.Resolve(context.Background(), "tx", &Referral{
		GroupID: testGroupID,
	}, testTable()))
}

func TestGroup_IsActive(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, (&Group{}).IsActive(now))
	assert.True(t, (&Group{ActiveAt: at(now)}).IsActive(now))
	assert.False(t, (&Group{ActiveAt: at(now.Add(time.Minute))}).IsActive(now))
	assert.True(t, (&Group{Codes: []string{"US"}}).CoversCountry("us"))
}
