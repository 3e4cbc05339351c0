package referral

import "errors"

var (
	// ErrGroupNotFound means an explicit group id was not present in the group table.
	ErrGroupNotFound = errors.New("referral group not found")

	// ErrPersistencePartialFailure means some upsert operations of a batch failed.
	ErrPersistencePartialFailure = errors.New("referral batch partially persisted")

	// ErrReferralNotFound means no stored referral matched the query.
	ErrReferralNotFound = errors.New("referral not found")
)
