package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/models"
	"github.com/orris-inc/referrals/internal/shared/db"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// ReferralGroupRepositoryImpl implements the referral.GroupRepository interface.
type ReferralGroupRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ReferralGroupMapper
	logger logger.Interface
}

// NewReferralGroupRepository creates a new referral group repository instance.
func NewReferralGroupRepository(db *gorm.DB, logger logger.Interface) *ReferralGroupRepositoryImpl {
	return &ReferralGroupRepositoryImpl{
		db:     db,
		mapper: mappers.NewReferralGroupMapper(),
		logger: logger,
	}
}

var _ referral.GroupRepository = (*ReferralGroupRepositoryImpl)(nil)

// List returns every payout group ordered by name.
func (r *ReferralGroupRepositoryImpl) List(ctx context.Context) ([]*referral.Group, error) {
	var rows []*models.ReferralGroupModel
	if err := db.GetTxFromContext(ctx, r.db).Order("name, id").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list referral groups", "error", err)
		return nil, fmt.Errorf("failed to list referral groups: %w", err)
	}

	groups, err := r.mapper.ToEntities(rows)
	if err != nil {
		r.logger.Errorw("failed to map referral groups", "error", err)
		return nil, fmt.Errorf("failed to map referral groups: %w", err)
	}
	return groups, nil
}

// Save inserts or replaces a payout group.
func (r *ReferralGroupRepositoryImpl) Save(ctx context.Context, group *referral.Group) error {
	model, err := r.mapper.ToModel(group)
	if err != nil {
		return fmt.Errorf("failed to map referral group: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Save(model).Error; err != nil {
		r.logger.Errorw("failed to save referral group", "id", group.ID, "error", err)
		return fmt.Errorf("failed to save referral group: %w", err)
	}
	return nil
}
