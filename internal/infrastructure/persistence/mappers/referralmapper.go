package mappers

import (
	"time"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/models"
	"github.com/orris-inc/referrals/internal/shared/mapper"
)

type ReferralMapper interface {
	ToEntity(model *models.ReferralModel) *referral.Record
	ToModel(entity *referral.Record) *models.ReferralModel
	ToEntities(models []*models.ReferralModel) []*referral.Record
}

type ReferralMapperImpl struct{}

func NewReferralMapper() ReferralMapper {
	return &ReferralMapperImpl{}
}

func (m *ReferralMapperImpl) ToEntity(model *models.ReferralModel) *referral.Record {
	if model == nil {
		return nil
	}

	return &referral.Record{
		TransactionID:     model.TransactionID,
		DownloadID:        model.DownloadID,
		Owner:             model.Owner,
		Publisher:         model.Publisher,
		Platform:          model.Platform,
		Finalized:         model.Finalized.UTC(),
		DownloadTimestamp: utcPtr(model.DownloadTimestamp),
		AltCurrency:       model.AltCurrency,
		Exclude:           model.Exclude,
		GroupID:           model.GroupID,
		PayoutRate:        model.PayoutRate,
		GroupRate:         model.GroupRate,
		Probi:             model.Probi,
		Timestamp:         model.Timestamp.UTC(),
	}
}

// ToModel leaves Timestamp zero so the database default assigns it.
func (m *ReferralMapperImpl) ToModel(entity *referral.Record) *models.ReferralModel {
	if entity == nil {
		return nil
	}

	return &models.ReferralModel{
		DownloadID:        entity.DownloadID,
		TransactionID:     entity.TransactionID,
		Owner:             entity.Owner,
		Publisher:         entity.Publisher,
		Platform:          entity.Platform,
		Finalized:         entity.Finalized.UTC(),
		DownloadTimestamp: utcPtr(entity.DownloadTimestamp),
		AltCurrency:       entity.AltCurrency,
		Exclude:           entity.Exclude,
		GroupID:           entity.GroupID,
		PayoutRate:        entity.PayoutRate,
		GroupRate:         entity.GroupRate,
		Probi:             entity.Probi,
	}
}

func (m *ReferralMapperImpl) ToEntities(items []*models.ReferralModel) []*referral.Record {
	return mapper.MapSlice(items, m.ToEntity)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
