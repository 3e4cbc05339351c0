package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/referrals/internal/shared/constants"
)

// ReferralGroupModel represents the database persistence model for payout groups.
type ReferralGroupModel struct {
	ID       string         `gorm:"primaryKey;size:36"`
	Name     string         `gorm:"not null;size:100"`
	Codes    datatypes.JSON `gorm:"type:json"` // JSON array of country codes
	Currency string         `gorm:"not null;size:16"`
	Amount   string         `gorm:"not null;size:80"`
	ActiveAt *time.Time     `gorm:"index:idx_referral_groups_active_at"`
}

// TableName specifies the table name for GORM.
func (ReferralGroupModel) TableName() string {
	return constants.TableReferralGroups
}
