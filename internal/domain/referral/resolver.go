package referral

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Resolution is the payout configuration selected for one referral.
// GroupID is empty when the default applies.
type Resolution struct {
	GroupID  string
	Amount   decimal.Decimal
	Currency string
}

// ResolverConfig holds the global default group and the cutoff after which
// explicit group ids are honored.
type ResolverConfig struct {
	DefaultAmount   decimal.Decimal
	DefaultCurrency string
	Cutoff          time.Time
}

// GroupResolver selects the payout group of a referral.
type GroupResolver struct {
	cfg      ResolverConfig
	reporter ErrorReporter
}

// NewGroupResolver creates a resolver. reporter receives ErrGroupNotFound anomalies.
func NewGroupResolver(cfg ResolverConfig, reporter ErrorReporter) *GroupResolver {
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)
	return &GroupResolver{cfg: cfg, reporter: reporter}
}

// Default returns the global default resolution.
func (r *GroupResolver) Default() Resolution {
	return Resolution{
		Amount:   r.cfg.DefaultAmount,
		Currency: r.cfg.DefaultCurrency,
	}
}

// Resolve honors an explicit group id only when the download happened at or
// after the cutoff. An unknown id is reported and the default is used; it never
// blocks pricing.
func (r *GroupResolver) Resolve(ctx context.Context, transactionID string, ref *Referral, table GroupTable) Resolution {
	if !ref.HasExplicitGroup() || ref.DownloadTimestamp == nil || ref.DownloadTimestamp.Before(r.cfg.Cutoff) {
		return r.Default()
	}

	group, ok := table.Lookup(ref.GroupID)
	if !ok {
		if r.reporter != nil {
			r.reporter.CaptureException(ctx, ErrGroupNotFound, map[string]any{
				"transactionId": transactionID,
				"downloadId":    ref.DownloadID,
				"groupId":       ref.GroupID,
			})
		}
		return r.Default()
	}

	return Resolution{
		GroupID:  group.ID,
		Amount:   group.Amount,
		Currency: strings.ToUpper(group.Currency),
	}
}
