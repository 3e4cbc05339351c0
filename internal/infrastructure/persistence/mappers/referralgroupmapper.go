package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/persistence/models"
	"github.com/orris-inc/referrals/internal/shared/mapper"
)

type ReferralGroupMapper interface {
	ToEntity(model *models.ReferralGroupModel) (*referral.Group, error)
	ToModel(entity *referral.Group) (*models.ReferralGroupModel, error)
	ToEntities(models []*models.ReferralGroupModel) ([]*referral.Group, error)
}

type ReferralGroupMapperImpl struct{}

func NewReferralGroupMapper() ReferralGroupMapper {
	return &ReferralGroupMapperImpl{}
}

func (m *ReferralGroupMapperImpl) ToEntity(model *models.ReferralGroupModel) (*referral.Group, error) {
	if model == nil {
		return nil, nil
	}

	amount, err := decimal.NewFromString(model.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid group amount %q: %w", model.Amount, err)
	}

	var codes []string
	if len(model.Codes) > 0 {
		if err := json.Unmarshal(model.Codes, &codes); err != nil {
			return nil, fmt.Errorf("invalid group codes: %w", err)
		}
	}

	return &referral.Group{
		ID:       model.ID,
		Name:     model.Name,
		Codes:    codes,
		Currency: model.Currency,
		Amount:   amount,
		ActiveAt: utcPtr(model.ActiveAt),
	}, nil
}

func (m *ReferralGroupMapperImpl) ToModel(entity *referral.Group) (*models.ReferralGroupModel, error) {
	if entity == nil {
		return nil, nil
	}

	codes := entity.Codes
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode group codes: %w", err)
	}

	return &models.ReferralGroupModel{
		ID:       entity.ID,
		Name:     entity.Name,
		Codes:    raw,
		Currency: entity.Currency,
		Amount:   entity.Amount.String(),
		ActiveAt: utcPtr(entity.ActiveAt),
	}, nil
}

func (m *ReferralGroupMapperImpl) ToEntities(items []*models.ReferralGroupModel) ([]*referral.Group, error) {
	return mapper.MapSlicePtrWithID(items, m.ToEntity, func(model *models.ReferralGroupModel) string {
		return model.ID
	})
}
