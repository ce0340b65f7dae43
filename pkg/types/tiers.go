package types

import "github.com/shopspring/decimal"

// EventTier is one named ticket category on an event. Price and capacity are
// display/validation inputs at registration time; the amount actually charged
// is captured on the ticket row and never re-reads the tier.
type EventTier struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Capacity int             `json:"capacity"`
}

// EventTiers is stored as a JSONB column on the event row.
type EventTiers []EventTier

// Find returns the tier with the given id, if present.
func (t EventTiers) Find(id string) (EventTier, bool) {
	for _, tier := range t {
		if tier.ID == id {
			return tier, true
		}
	}
	return EventTier{}, false
}
