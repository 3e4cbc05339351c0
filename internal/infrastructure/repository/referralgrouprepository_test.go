package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/models"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

func TestReferralGroupRepository_SaveAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralGroupRepository(db, logger.NewNopLogger())
	ctx := context.Background()

	activeAt := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &referral.Group{
		ID:       "e48f310b-0e81-4b39-a836-4dda32d7df74",
		Name:     "Group 1",
		Codes:    []string{"US", "CA"},
		Currency: "USD",
		Amount:   decimal.RequireFromString("7.5"),
		ActiveAt: &activeAt,
	}))
	require.NoError(t, repo.Save(ctx, &referral.Group{
		ID:       "71341fc9-aeab-4766-acf0-d91d3ffb0bfa",
		Name:     "Default",
		Currency: "USD",
		Amount:   decimal.NewFromInt(5),
	}))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Default", groups[0].Name)
	assert.Empty(t, groups[0].Codes)
	assert.Nil(t, groups[0].ActiveAt)

	g := groups[1]
	assert.Equal(t, []string{"US", "CA"}, g.Codes)
	assert.Equal(t, "7.5", g.Amount.String())
	require.NotNil(t, g.ActiveAt)
	assert.True(t, activeAt.Equal(*g.ActiveAt))
}

func TestReferralGroupRepository_InvalidAmount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralGroupRepository(db, logger.NewNopLogger())

	require.NoError(t, db.Create(&models.ReferralGroupModel{
		ID:       "bad",
		Name:     "Broken",
		Currency: "USD",
		Amount:   "five",
	}).Error)

	_, err := repo.List(context.Background())
	assert.Error(t, err)
}
