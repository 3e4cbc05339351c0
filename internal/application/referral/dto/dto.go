package dto

import (
	"time"

	"github.com/orris-inc/referrals/internal/domain/referral"
)

// CreateReferralsCommand is one referral batch keyed by its transaction id.
type CreateReferralsCommand struct {
	TransactionID string
	Referrals     []*referral.Referral
}

// CreateReferralsResult summarizes a processed batch.
type CreateReferralsResult struct {
	TransactionID string `json:"transactionId"`
	Received      int    `json:"received"`
	Upserted      int    `json:"upserted"`
	Matched       int    `json:"matched"`
	Failed        int    `json:"failed"`
}

// ReferralSummary is the public view of a stored referral.
type ReferralSummary struct {
	ChannelID  string    `json:"channelId"`
	DownloadID string    `json:"downloadId"`
	Platform   string    `json:"platform"`
	Finalized  time.Time `json:"finalized"`
}

// ToReferralSummary converts a stored record.
func ToReferralSummary(r *referral.Record) *ReferralSummary {
	return &ReferralSummary{
		ChannelID:  r.Publisher,
		DownloadID: r.DownloadID,
		Platform:   r.Platform,
		Finalized:  r.Finalized,
	}
}

// Group fields selectable in ListGroupsQuery.Fields.
const (
	GroupFieldName     = "name"
	GroupFieldActiveAt = "activeAt"
	GroupFieldCodes    = "codes"
	GroupFieldCurrency = "currency"
	GroupFieldAmount   = "amount"
)

// ListGroupsQuery filters the payout group listing.
// A nil Active returns every group. A non-empty Country keeps only the groups covering it.
type ListGroupsQuery struct {
	Active  *bool
	Country string
	Fields  []string
}

// GroupView holds the id plus the requested group fields.
type GroupView map[string]any

// StatementQuery selects referrals of Owner with Start <= finalized < Until.
// Zero bounds fall back to the current month.
type StatementQuery struct {
	Owner string
	Start time.Time
	Until time.Time
}

// StatementEntry is one line of a publisher statement.
type StatementEntry struct {
	Publisher  string `json:"publisher"`
	GroupID    string `json:"groupId"`
	GroupRate  string `json:"groupRate"`
	PayoutRate string `json:"payoutRate"`
	Amount     string `json:"amount"`
}

// TransactionReport aggregates the referrals of one processed batch.
type TransactionReport struct {
	TransactionID string            `json:"transactionId"`
	Referrals     int               `json:"referrals"`
	ByPublisher   map[string]string `json:"byPublisher"`
	Total         string            `json:"total"`
	AltCurrency   string            `json:"altcurrency"`
}
