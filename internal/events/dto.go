package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
)

// TierView is a tier plus its live availability.
type TierView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Capacity  int             `json:"capacity"`
	Sold      int64           `json:"sold"`
	Remaining *int64          `json:"remaining,omitempty"`
}

// EventView is the public event page payload. It is cached and invalidated
// whenever fulfillment changes a ticket on the event.
type EventView struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	ImageURLs   []string   `json:"imageUrls,omitempty"`
	Category    string     `json:"category"`
	IsPublished bool       `json:"isPublished"`
	Tiers       []TierView `json:"tiers"`
}

// EventSummary is the catalog row for the public event listing.
type EventSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// EventPage is one page of the catalog plus the cursor for the next one.
type EventPage struct {
	Items      []EventSummary `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func summaryFromModel(event *models.Event) EventSummary {
	summary := EventSummary{
		ID:        event.ID,
		Title:     event.Title,
		Location:  event.Location,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Category:  event.Category,
	}
	if len(event.ImageURLs) > 0 {
		summary.ImageURL = event.ImageURLs[0]
	}
	return summary
}

func viewFromModel(event *models.Event) *EventView {
	return &EventView{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		ImageURLs:   event.ImageURLs,
		Category:    event.Category,
		IsPublished: event.IsPublished,
	}
}
