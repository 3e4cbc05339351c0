package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/interfaces/http/handlers/testutil"
)

func TestMain(m *testing.M) {
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// =====================================================================
// Mock use cases
// =====================================================================

type mockCreateReferralsUC struct {
	cmd    dto.CreateReferralsCommand
	called bool
	result *dto.CreateReferralsResult
	err    error
}

func (m *mockCreateReferralsUC) Execute(ctx context.Context, cmd dto.CreateReferralsCommand) (*dto.CreateReferralsResult, error) {
	m.called = true
	m.cmd = cmd
	return m.result, m.err
}

type mockFindReferralsUC struct {
	result []*dto.ReferralSummary
	err    error
}

func (m *mockFindReferralsUC) Execute(ctx context.Context, transactionID string) ([]*dto.ReferralSummary, error) {
	return m.result, m.err
}

type mockListGroupsUC struct {
	query  dto.ListGroupsQuery
	result []dto.GroupView
}

func (m *mockListGroupsUC) Execute(ctx context.Context, query dto.ListGroupsQuery) ([]dto.GroupView, error) {
	m.query = query
	return m.result, nil
}

type mockGetStatementUC struct {
	query  dto.StatementQuery
	result []*dto.StatementEntry
	err    error
}

func (m *mockGetStatementUC) Execute(ctx context.Context, query dto.StatementQuery) ([]*dto.StatementEntry, error) {
	m.query = query
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

var (
	testTransactionID = uuid.NewString()
	testOwner         = "publishers#uuid:" + uuid.NewString()
)

func validReferral() map[string]any {
	return map[string]any{
		"ownerId":    testOwner,
		"channelId":  "example.com",
		"downloadId": uuid.NewString(),
		"platform":   "winx64",
		"finalized":  "2019-07-02T10:00:00.000Z",
	}
}

func newTestReferralHandler(create *mockCreateReferralsUC, find *mockFindReferralsUC, list *mockListGroupsUC, stmt *mockGetStatementUC) *ReferralHandler {
	return NewReferralHandler(create, find, list, stmt, testutil.NewMockLogger())
}

// =====================================================================
// CreateReferrals
// =====================================================================

func TestReferralHandler_CreateReferrals_Success(t *testing.T) {
	createUC := &mockCreateReferralsUC{result: &dto.CreateReferralsResult{TransactionID: testTransactionID, Received: 2, Upserted: 2}}
	handler := newTestReferralHandler(createUC, nil, nil, nil)

	stamped := validReferral()
	stamped["groupId"] = uuid.NewString()
	stamped["downloadTimestamp"] = "2019-06-15T00:00:00Z"

	c, w := testutil.NewTestContext(http.MethodPut, "/v1/referrals/"+testTransactionID, []map[string]any{validReferral(), stamped})
	testutil.SetURLParam(c, "transactionId", testTransactionID)

	handler.CreateReferrals(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, createUC.called)
	assert.Equal(t, testTransactionID, createUC.cmd.TransactionID)
	require.Len(t, createUC.cmd.Referrals, 2)
	assert.Nil(t, createUC.cmd.Referrals[0].DownloadTimestamp)
	assert.Equal(t, stamped["groupId"], createUC.cmd.Referrals[1].GroupID)
	require.NotNil(t, createUC.cmd.Referrals[1].DownloadTimestamp)
	assert.Equal(t, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), *createUC.cmd.Referrals[1].DownloadTimestamp)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)
}

func TestReferralHandler_CreateReferrals_Validation(t *testing.T) {
	tests := []struct {
		name   string
		txID   string
		mutate func(r map[string]any)
		body   any
	}{
		{name: "transaction id not a uuid", txID: "nope", mutate: func(map[string]any) {}},
		{name: "bad owner", mutate: func(r map[string]any) { r["ownerId"] = "owner" }},
		{name: "bad publisher", mutate: func(r map[string]any) { r["channelId"] = "not a domain" }},
		{name: "bad download id", mutate: func(r map[string]any) { r["downloadId"] = "d-1" }},
		{name: "missing finalized", mutate: func(r map[string]any) { delete(r, "finalized") }},
		{name: "group without timestamp", mutate: func(r map[string]any) { r["groupId"] = uuid.NewString() }},
		{name: "timestamp without group", mutate: func(r map[string]any) { r["downloadTimestamp"] = "2019-06-15T00:00:00Z" }},
		{name: "empty list", body: []map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createUC := &mockCreateReferralsUC{}
			handler := newTestReferralHandler(createUC, nil, nil, nil)

			body := tt.body
			if body == nil {
				r := validReferral()
				tt.mutate(r)
				body = []map[string]any{r}
			}
			txID := tt.txID
			if txID == "" {
				txID = testTransactionID
			}

			c, w := testutil.NewTestContext(http.MethodPut, "/v1/referrals/"+txID, body)
			testutil.SetURLParam(c, "transactionId", txID)

			handler.CreateReferrals(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, createUC.called)
		})
	}
}

func TestReferralHandler_CreateReferrals_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "rate fetch failure", err: currency.ErrRateFetchFailure, status: http.StatusServiceUnavailable},
		{name: "rate unavailable", err: currency.ErrRateUnavailable, status: http.StatusBadGateway},
		{name: "scale unavailable", err: currency.ErrScaleUnavailable, status: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("db gone"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createUC := &mockCreateReferralsUC{err: tt.err}
			handler := newTestReferralHandler(createUC, nil, nil, nil)

			c, w := testutil.NewTestContext(http.MethodPut, "/v1/referrals/"+testTransactionID, []map[string]any{validReferral()})
			testutil.SetURLParam(c, "transactionId", testTransactionID)

			handler.CreateReferrals(c)

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "db gone")
		})
	}
}

// =====================================================================
// FindReferrals
// =====================================================================

func TestReferralHandler_FindReferrals(t *testing.T) {
	finalized := time.Date(2019, 7, 2, 10, 0, 0, 0, time.UTC)
	findUC := &mockFindReferralsUC{result: []*dto.ReferralSummary{{
		ChannelID:  "example.com",
		DownloadID: "d-1",
		Platform:   "ios",
		Finalized:  finalized,
	}}}
	handler := newTestReferralHandler(nil, findUC, nil, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/v1/referrals/"+testTransactionID, nil)
	testutil.SetURLParam(c, "transactionId", testTransactionID)

	handler.FindReferrals(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "example.com", summaries[0]["channelId"])
	assert.Equal(t, "2019-07-02T10:00:00Z", summaries[0]["finalized"])
}

func TestReferralHandler_FindReferrals_NotFound(t *testing.T) {
	handler := newTestReferralHandler(nil, &mockFindReferralsUC{err: referral.ErrReferralNotFound}, nil, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/v1/referrals/"+testTransactionID, nil)
	testutil.SetURLParam(c, "transactionId", testTransactionID)

	handler.FindReferrals(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// ListGroups
// =====================================================================

func TestReferralHandler_ListGroups(t *testing.T) {
	listUC := &mockListGroupsUC{result: []dto.GroupView{{"id": "g-1", "name": "Group 1"}}}
	handler := newTestReferralHandler(nil, nil, listUC, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/v1/referrals/groups?active=true&country=ca&fields=name,codes&fields=amount", nil)

	handler.ListGroups(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, listUC.query.Active)
	assert.True(t, *listUC.query.Active)
	assert.Equal(t, "CA", listUC.query.Country)
	assert.Equal(t, []string{"name", "codes", "amount"}, listUC.query.Fields)
}

func TestReferralHandler_ListGroups_Validation(t *testing.T) {
	for _, path := range []string{
		"/v1/referrals/groups?fields=secret",
		"/v1/referrals/groups?country=XX1",
		"/v1/referrals/groups?active=maybe",
	} {
		t.Run(path, func(t *testing.T) {
			handler := newTestReferralHandler(nil, nil, &mockListGroupsUC{}, nil)
			c, w := testutil.NewTestContext(http.MethodGet, path, nil)

			handler.ListGroups(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// =====================================================================
// GetStatement
// =====================================================================

func TestReferralHandler_GetStatement(t *testing.T) {
	stmtUC := &mockGetStatementUC{result: []*dto.StatementEntry{{
		Publisher:  "example.com",
		GroupRate:  "1",
		PayoutRate: "4",
		Amount:     "20",
	}}}
	handler := newTestReferralHandler(nil, nil, nil, stmtUC)

	c, w := testutil.NewTestContext(http.MethodGet, "/v1/referrals/statement/x", nil)
	testutil.SetURLParam(c, "owner", testOwner)
	testutil.SetQueryParams(c, map[string]string{"start": "2019-07-01T00:00:00Z"})

	handler.GetStatement(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testOwner, stmtUC.query.Owner)
	assert.Equal(t, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), stmtUC.query.Start)
	assert.True(t, stmtUC.query.Until.IsZero())
}

func TestReferralHandler_GetStatement_InvalidOwner(t *testing.T) {
	handler := newTestReferralHandler(nil, nil, nil, &mockGetStatementUC{})

	c, w := testutil.NewTestContext(http.MethodGet, "/v1/referrals/statement/bob", nil)
	testutil.SetURLParam(c, "owner", "bob")

	handler.GetStatement(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
