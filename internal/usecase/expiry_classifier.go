package usecase

import (
	"time"

	"telegram-expiry-reminder/internal/domain/model"
)

// WarningTiers is the sparse warning schedule, in the order blocks are rendered.
// Offsets in between (2, 4, ...) are never alerted.
var WarningTiers = []int{1, 3, 5}

// Tiers buckets products by notification urgency. Empty tiers are absent:
// Warnings has no key for them and Today/Expired stay nil.
type Tiers struct {
	Warnings map[int][]*model.Product
	Today    []*model.Product
	Expired  []*model.Product
}

// HasWarnings reports whether any of the 1/3/5 tiers has members.
func (t Tiers) HasWarnings() bool {
	return len(t.Warnings) > 0
}

func (t Tiers) IsEmpty() bool {
	return !t.HasWarnings() && len(t.Today) == 0 && len(t.Expired) == 0
}

// ClassifyExpiry buckets products by whole calendar days left until expiry.
// It is pure: members keep the order of the input slice.
func ClassifyExpiry(today time.Time, products []*model.Product) Tiers {
	tiers := Tiers{Warnings: map[int][]*model.Product{}}
	for _, p := range products {
		if p == nil {
			continue
		}
		days := p.DaysLeft(today)
		switch {
		case days < 0:
			tiers.Expired = append(tiers.Expired, p)
		case days == 0:
			tiers.Today = append(tiers.Today, p)
		case isWarningTier(days):
			tiers.Warnings[days] = append(tiers.Warnings[days], p)
		}
	}
	return tiers
}

func isWarningTier(days int) bool {
	for _, d := range WarningTiers {
		if d == days {
			return true
		}
	}
	return false
}
