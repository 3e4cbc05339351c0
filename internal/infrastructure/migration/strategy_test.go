package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/referrals/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "referrals.db")), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestGooseStrategy_UpAndDown(t *testing.T) {
	db := setupTestDB(t)
	strategy := NewGooseStrategy(DialectSQLite, t.TempDir(), logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, strategy.Migrate(ctx, db))

	version, err := strategy.GetVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.True(t, db.Migrator().HasTable("referrals"))
	assert.True(t, db.Migrator().HasTable("referral_groups"))

	statuses, err := strategy.Status(ctx, db)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.Equal(t, StateApplied, st.State)
	}

	require.NoError(t, strategy.MigrateDown(ctx, db, 1))
	assert.False(t, db.Migrator().HasTable("referral_groups"))
	assert.True(t, db.Migrator().HasTable("referrals"))

	// Re-running is idempotent.
	require.NoError(t, strategy.Migrate(ctx, db))
	require.NoError(t, strategy.Migrate(ctx, db))
}

func TestGooseStrategy_Create(t *testing.T) {
	dir := t.TempDir()
	strategy := NewGooseStrategy(DialectMySQL, dir, logger.NewNopLogger())

	require.NoError(t, strategy.Create("add_referral_notes"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "add_referral_notes.sql")
}
