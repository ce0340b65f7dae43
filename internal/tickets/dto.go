package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
)

// TicketView is the purchaser-facing shape of a ticket.
type TicketView struct {
	ID           uuid.UUID          `json:"id"`
	EventID      uuid.UUID          `json:"eventId"`
	TierID       string             `json:"tierId"`
	TierName     string             `json:"tierName"`
	Status       enums.TicketStatus `json:"status"`
	Amount       decimal.Decimal    `json:"amount"`
	PurchaseDate time.Time          `json:"purchaseDate"`
	IsScanned    bool               `json:"isScanned"`
	ScannedAt    *time.Time         `json:"scannedAt,omitempty"`
}

func viewFromModel(ticket *models.Ticket) TicketView {
	return TicketView{
		ID:           ticket.ID,
		EventID:      ticket.EventID,
		TierID:       ticket.TierID,
		TierName:     ticket.TierName,
		Status:       ticket.Status,
		Amount:       ticket.Amount,
		PurchaseDate: ticket.PurchaseDate,
		IsScanned:    ticket.IsScanned,
		ScannedAt:    ticket.ScannedAt,
	}
}
