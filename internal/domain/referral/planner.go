package referral

// PlanItem is one priced referral ready to be persisted.
type PlanItem struct {
	TransactionID string
	AltCurrency   string
	Referral      *Referral
	Payout        *Payout
}

// UpsertFilter matches the natural key of a stored referral.
type UpsertFilter struct {
	DownloadID string
}

// UpsertOp describes one idempotent write. SetOnInsert is applied only when
// no row matches Filter; TouchTimestamp refreshes the server timestamp always.
type UpsertOp struct {
	Filter         UpsertFilter
	TouchTimestamp bool
	SetOnInsert    *Record
}

// BatchResult reports the outcome of executing a batch of UpsertOps.
type BatchResult struct {
	Matched  int
	Upserted int
	Modified int
	Failed   int
	Errors   []error
}

// OK reports whether every op of the batch succeeded.
func (r *BatchResult) OK() bool {
	return r.Failed == 0
}

// PlanUpserts builds one upsert per item. It performs no I/O.
func PlanUpserts(items []PlanItem) []UpsertOp {
	ops := make([]UpsertOp, 0, len(items))
	for _, item := range items {
		ref := item.Referral
		payout := item.Payout
		ops = append(ops, UpsertOp{
			Filter:         UpsertFilter{DownloadID: ref.DownloadID},
			TouchTimestamp: true,
			SetOnInsert: &Record{
				TransactionID:     item.TransactionID,
				DownloadID:        ref.DownloadID,
				Owner:             ref.OwnerID,
				Publisher:         ref.ChannelID,
				Platform:          ref.Platform,
				Finalized:         ref.Finalized,
				DownloadTimestamp: ref.DownloadTimestamp,
				AltCurrency:       item.AltCurrency,
				Exclude:           false,
				GroupID:           payout.GroupID,
				PayoutRate:        payout.PayoutRate,
				GroupRate:         payout.GroupRate,
				Probi:             payout.Probi,
			},
		})
	}
	return ops
}
