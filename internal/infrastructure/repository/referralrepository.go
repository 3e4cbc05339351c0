package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/models"
	"github.com/orris-inc/referrals/internal/shared/db"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

type upsertOutcome int

const (
	outcomeInserted upsertOutcome = iota
	outcomeMatched
	outcomeTouched
)

// ReferralRepositoryImpl implements the referral.Repository interface.
type ReferralRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ReferralMapper
	logger logger.Interface
}

// NewReferralRepository creates a new referral repository instance.
func NewReferralRepository(db *gorm.DB, logger logger.Interface) referral.Repository {
	return &ReferralRepositoryImpl{
		db:     db,
		mapper: mappers.NewReferralMapper(),
		logger: logger,
	}
}

// BulkUpsert executes ops in one transaction. Each op runs in its own savepoint
// so a failing op is rolled back alone and counted in the result.
func (r *ReferralRepositoryImpl) BulkUpsert(ctx context.Context, ops []referral.UpsertOp) (*referral.BatchResult, error) {
	result := &referral.BatchResult{}
	if len(ops) == 0 {
		return result, nil
	}

	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for i, op := range ops {
			var outcome upsertOutcome
			err := db.RunInSavepoint(tx, fmt.Sprintf("referral_op_%d", i), func(tx *gorm.DB) error {
				var err error
				outcome, err = r.upsert(tx, op)
				return err
			})
			if err != nil {
				r.logger.Warnw("referral upsert failed",
					"download_id", op.Filter.DownloadID,
					"error", err,
				)
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("download %s: %w", op.Filter.DownloadID, err))
				continue
			}

			switch outcome {
			case outcomeInserted:
				result.Upserted++
			case outcomeTouched:
				result.Matched++
				result.Modified++
			case outcomeMatched:
				result.Matched++
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Errorw("failed to execute referral batch", "operations", len(ops), "error", err)
		return nil, fmt.Errorf("failed to execute referral batch: %w", err)
	}

	r.logger.Infow("referral batch executed",
		"operations", len(ops),
		"upserted", result.Upserted,
		"matched", result.Matched,
		"failed", result.Failed,
	)
	return result, nil
}

// upsert inserts the record unless its download id exists. An existing row
// only gets its timestamp refreshed.
func (r *ReferralRepositoryImpl) upsert(tx *gorm.DB, op referral.UpsertOp) (upsertOutcome, error) {
	if op.SetOnInsert == nil {
		return 0, fmt.Errorf("upsert without insert values")
	}

	model := r.mapper.ToModel(op.SetOnInsert)
	model.DownloadID = op.Filter.DownloadID

	created := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "download_id"}},
		DoNothing: true,
	}).Create(model)
	if created.Error != nil {
		return 0, created.Error
	}
	if created.RowsAffected > 0 {
		return outcomeInserted, nil
	}

	if !op.TouchTimestamp {
		return outcomeMatched, nil
	}

	touched := tx.Model(&models.ReferralModel{}).
		Where("download_id = ?", op.Filter.DownloadID).
		Update("timestamp", gorm.Expr("CURRENT_TIMESTAMP"))
	if touched.Error != nil {
		return 0, touched.Error
	}
	if touched.RowsAffected == 0 {
		return outcomeMatched, nil
	}
	return outcomeTouched, nil
}

// FindByTransactionID returns every referral recorded under transactionID.
func (r *ReferralRepositoryImpl) FindByTransactionID(ctx context.Context, transactionID string) ([]*referral.Record, error) {
	var rows []*models.ReferralModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("transaction_id = ?", transactionID).
		Order("download_id").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to find referrals", "transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to find referrals: %w", err)
	}
	return r.mapper.ToEntities(rows), nil
}

// ListByOwner returns referrals of owner with start <= finalized < until.
func (r *ReferralRepositoryImpl) ListByOwner(ctx context.Context, owner string, start, until time.Time) ([]*referral.Record, error) {
	var rows []*models.ReferralModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("owner = ? AND finalized >= ? AND finalized < ?", owner, start.UTC(), until.UTC()).
		Order("finalized, download_id").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list referrals by owner", "owner", owner, "error", err)
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return r.mapper.ToEntities(rows), nil
}
