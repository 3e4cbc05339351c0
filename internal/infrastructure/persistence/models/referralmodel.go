package models

import (
	"time"

	"github.com/orris-inc/referrals/internal/shared/constants"
)

// ReferralModel represents the database persistence model for referrals.
// Financial columns are written once, on insert.
type ReferralModel struct {
	DownloadID        string     `gorm:"primaryKey;size:36"`
	TransactionID     string     `gorm:"not null;size:36;index:idx_referrals_transaction_id"`
	Owner             string     `gorm:"not null;size:255;index:idx_referrals_owner"`
	Publisher         string     `gorm:"not null;size:255;index:idx_referrals_publisher"`
	Platform          string     `gorm:"not null;size:32"`
	Finalized         time.Time  `gorm:"not null;index:idx_referrals_finalized"`
	DownloadTimestamp *time.Time `gorm:"column:download_timestamp"`
	AltCurrency       string     `gorm:"column:altcurrency;not null;size:16"`
	Exclude           bool       `gorm:"not null;default:false"`
	GroupID           string     `gorm:"not null;size:36;default:''"`
	PayoutRate        string     `gorm:"not null;size:80"`
	GroupRate         string     `gorm:"not null;size:80"`
	Probi             string     `gorm:"not null;size:80"`
	Timestamp         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for GORM.
func (ReferralModel) TableName() string {
	return constants.TableReferrals
}
