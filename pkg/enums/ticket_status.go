package enums

import "fmt"

// TicketStatus tracks the fulfillment lifecycle of a ticket. Cancellation is
// represented by deleting the row, so `cancelled` only appears transiently on
// payloads, never as a persisted state.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusActive    TicketStatus = "active"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusScanned   TicketStatus = "scanned"
)

var validTicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusActive,
	TicketStatusCancelled,
	TicketStatusScanned,
}

// String implements fmt.Stringer.
func (t TicketStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketStatus.
func (t TicketStatus) IsValid() bool {
	for _, candidate := range validTicketStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	for _, candidate := range validTicketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket status %q", value)
}
