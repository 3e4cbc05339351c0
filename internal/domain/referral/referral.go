package referral

import "time"

// Referral is one incoming referral event.
type Referral struct {
	DownloadID        string
	OwnerID           string
	ChannelID         string
	Platform          string
	Finalized         time.Time
	DownloadTimestamp *time.Time
	GroupID           string
}

// HasExplicitGroup reports whether the referral names a payout group.
func (r *Referral) HasExplicitGroup() bool {
	return r.GroupID != ""
}

// Payout is the priced result for one referral. Every monetary field is a decimal string.
type Payout struct {
	DownloadID string
	GroupID    string
	PayoutRate string
	GroupRate  string
	Probi      string
	Amount     string
}

// Record is a stored referral row.
type Record struct {
	TransactionID     string
	DownloadID        string
	Owner             string
	Publisher         string
	Platform          string
	Finalized         time.Time
	DownloadTimestamp *time.Time
	AltCurrency       string
	Exclude           bool
	GroupID           string
	PayoutRate        string
	GroupRate         string
	Probi             string
	// Timestamp is assigned by storage on insert and on every redelivery.
	Timestamp time.Time
}
