package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/biztime"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// ListGroupsUseCase lists payout groups with a caller-selected set of fields.
type ListGroupsUseCase struct {
	groups referral.GroupRepository
	now    func() time.Time
	logger logger.Interface
}

// NewListGroupsUseCase creates a new ListGroupsUseCase
func NewListGroupsUseCase(groups referral.GroupRepository, logger logger.Interface) *ListGroupsUseCase {
	return &ListGroupsUseCase{
		groups: groups,
		now:    biztime.NowUTC,
		logger: logger,
	}
}

// Execute returns each group's id plus the requested fields.
func (uc *ListGroupsUseCase) Execute(ctx context.Context, query dto.ListGroupsQuery) ([]dto.GroupView, error) {
	groups, err := uc.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral groups: %w", err)
	}

	now := uc.now()
	views := make([]dto.GroupView, 0, len(groups))
	for _, g := range groups {
		if query.Active != nil && g.IsActive(now) != *query.Active {
			continue
		}
		if query.Country != "" && !g.CoversCountry(query.Country) {
			continue
		}
		views = append(views, groupView(g, query.Fields))
	}
	return views, nil
}

func groupView(g *referral.Group, fields []string) dto.GroupView {
	view := dto.GroupView{"id": g.ID}
	for _, field := range fields {
		switch field {
		case dto.GroupFieldName:
			view[field] = g.Name
		case dto.GroupFieldActiveAt:
			view[field] = g.ActiveAt
		case dto.GroupFieldCodes:
			codes := g.Codes
			if codes == nil {
				codes = []string{}
			}
			view[field] = codes
		case dto.GroupFieldCurrency:
			view[field] = g.Currency
		case dto.GroupFieldAmount:
			view[field] = g.Amount.String()
		}
	}
	return view
}
