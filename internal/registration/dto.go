package registration

import (
	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
)

// Caller identifies the authenticated purchaser as asserted by the identity
// provider token.
type Caller struct {
	ExternalID string
	Email      string
	Name       string
	ImageURL   *string
}

// RegisterInput is one registration attempt for a single event tier.
type RegisterInput struct {
	EventID uuid.UUID
	TierID  string
	Caller  Caller
}

// RegisterResult tells the client where to go next. Free registrations settle
// immediately and carry the ticket; paid ones carry the hosted checkout URL
// for the redirect.
type RegisterResult struct {
	Ticket      *models.Ticket
	RedirectURL string
	CheckoutURL string
	Paid        bool
}
