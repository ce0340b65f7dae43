package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
)

// Check-in results for metrics.
const (
	resultAdmitted  = "admitted"
	resultDuplicate = "duplicate"
	resultRejected  = "rejected"
)

// Service admits attendees at the gate. Only the event's organizer may scan,
// and each ticket admits exactly once regardless of how many scanners race on
// it.
type Service struct {
	events  events.Repository
	tickets tickets.Repository
	metrics *metrics.FulfillmentMetrics
	logger  *logger.Logger
}

// NewService wires the check-in processor.
func NewService(eventRepo events.Repository, ticketRepo tickets.Repository, m *metrics.FulfillmentMetrics, logg *logger.Logger) *Service {
	return &Service{
		events:  eventRepo,
		tickets: ticketRepo,
		metrics: m,
		logger:  logg,
	}
}

// CheckInInput identifies the scan: which ticket, at which event, by whom.
type CheckInInput struct {
	TicketID            uuid.UUID
	EventID             uuid.UUID
	OrganizerExternalID string
}

// CheckInResult is what the gate display shows on admission.
type CheckInResult struct {
	TicketID     uuid.UUID
	AttendeeName string
	TierName     string
	ScannedAt    time.Time
}

// CheckIn validates and admits one ticket.
func (s *Service) CheckIn(ctx context.Context, input CheckInInput) (*CheckInResult, error) {
	ctx = s.logger.WithEventID(ctx, input.EventID.String())
	ctx = s.logger.WithTicketID(ctx, input.TicketID.String())

	event, err := s.events.FindByID(ctx, input.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	if event.ExternalOrganizerID != input.OrganizerExternalID {
		s.metrics.IncCheckIn(resultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the event organizer may check in attendees")
	}

	ticket, err := s.tickets.FindByIDWithUser(ctx, input.TicketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
	}
	if ticket == nil {
		s.metrics.IncCheckIn(resultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid ticket")
	}
	if ticket.EventID != event.ID {
		s.metrics.IncCheckIn(resultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket belongs to a different event")
	}

	switch ticket.Status {
	case enums.TicketStatusPending:
		s.metrics.IncCheckIn(resultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket payment not completed")
	case enums.TicketStatusScanned:
		s.metrics.IncCheckIn(resultDuplicate)
		return nil, alreadyCheckedIn(ticket.ScannedAt)
	}

	now := time.Now().UTC()
	scanned, err := s.tickets.MarkScanned(ctx, ticket.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark ticket scanned")
	}
	if !scanned {
		// Another scanner admitted this ticket between the read and the
		// update.
		s.metrics.IncCheckIn(resultDuplicate)
		current, findErr := s.tickets.FindByID(ctx, ticket.ID)
		if findErr == nil && current != nil {
			return nil, alreadyCheckedIn(current.ScannedAt)
		}
		return nil, alreadyCheckedIn(nil)
	}

	s.metrics.IncCheckIn(resultAdmitted)
	s.logger.Info(ctx, "attendee checked in")

	result := &CheckInResult{
		TicketID:  ticket.ID,
		TierName:  ticket.TierName,
		ScannedAt: now,
	}
	if ticket.User != nil {
		result.AttendeeName = ticket.User.Name
	}
	return result, nil
}

func alreadyCheckedIn(at *time.Time) error {
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "ticket already checked in")
	if at != nil {
		return err.WithDetails(map[string]string{"scannedAt": at.UTC().Format(time.RFC3339)})
	}
	return err
}
