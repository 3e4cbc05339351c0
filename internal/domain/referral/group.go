package referral

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Group is a region and currency specific payout configuration.
type Group struct {
	ID       string
	Name     string
	Codes    []string
	Currency string
	Amount   decimal.Decimal
	ActiveAt *time.Time
}

// IsActive reports whether the group has become active at now.
func (g *Group) IsActive(now time.Time) bool {
	return g.ActiveAt != nil && !g.ActiveAt.After(now)
}

// CoversCountry reports whether code is one of the group's country codes.
func (g *Group) CoversCountry(code string) bool {
	for _, c := range g.Codes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// GroupTable is a point-in-time read of the payout groups keyed by id.
type GroupTable map[string]*Group

// NewGroupTable indexes groups by id. A later duplicate id wins.
func NewGroupTable(groups []*Group) GroupTable {
	table := make(GroupTable, len(groups))
	for _, g := range groups {
		if g == nil || g.ID == "" {
			continue
		}
		table[g.ID] = g
	}
	return table
}

// Lookup returns the group with id.
func (t GroupTable) Lookup(id string) (*Group, bool) {
	g, ok := t[id]
	return g, ok
}
