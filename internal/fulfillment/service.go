package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gatepasshq/gatepass-backend/internal/payments"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/internal/users"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
)

// Outcome classifies what a reconciliation attempt actually did.
type Outcome string

const (
	OutcomeActivated Outcome = metrics.OutcomeActivated
	OutcomeReplayed  Outcome = metrics.OutcomeReplayed
	OutcomeRecovered Outcome = metrics.OutcomeRecovered
)

// CacheInvalidator drops cached views that a fulfillment mutation staled.
type CacheInvalidator interface {
	Del(ctx context.Context, keys ...string) error
	EventViewKey(eventID string) string
	UserTicketsKey(externalUserID string) string
}

// Service is the single fulfillment path shared by the webhook reconciler and
// the client-side verifier. Both feed it the same provider metadata, so a
// payment confirmed twice, once per channel, converges on one active ticket.
type Service struct {
	tickets tickets.Repository
	users   users.Repository
	cache   CacheInvalidator
	metrics *metrics.FulfillmentMetrics
	logger  *logger.Logger
}

// NewService wires the fulfillment service.
func NewService(
	ticketRepo tickets.Repository,
	userRepo users.Repository,
	cache CacheInvalidator,
	m *metrics.FulfillmentMetrics,
	logg *logger.Logger,
) *Service {
	return &Service{
		tickets: ticketRepo,
		users:   userRepo,
		cache:   cache,
		metrics: m,
		logger:  logg,
	}
}

// Confirmation carries everything a paid session tells us about the ticket it
// settles. AmountCents comes from the provider and backstops a metadata map
// that lost its price.
type Confirmation struct {
	Source      string
	Metadata    payments.SessionMetadata
	PaymentRef  string
	AmountCents int64
}

// Reconcile drives a confirmed payment to its terminal state: activate the
// pending ticket, acknowledge an already-active one, or resynthesize the row
// from metadata when the pending ticket vanished before the confirmation
// arrived. Safe to call any number of times for the same session.
func (s *Service) Reconcile(ctx context.Context, conf Confirmation) (Outcome, *models.Ticket, error) {
	ctx = s.logger.WithTicketID(ctx, conf.Metadata.TicketID.String())
	ctx = s.logger.WithEventID(ctx, conf.Metadata.EventID.String())

	existing, err := s.tickets.FindByID(ctx, conf.Metadata.TicketID)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket for reconciliation")
	}

	if existing != nil {
		activated, err := s.tickets.Activate(ctx, existing.ID, conf.PaymentRef)
		if err != nil {
			return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate ticket")
		}
		if !activated {
			// Already active or scanned: another delivery won the race.
			s.metrics.IncReconciliation(conf.Source, metrics.OutcomeReplayed)
			s.logger.Info(ctx, "reconciliation replayed, ticket already settled")
			return OutcomeReplayed, existing, nil
		}
		s.metrics.IncReconciliation(conf.Source, metrics.OutcomeActivated)
		s.logger.Info(ctx, "ticket activated")
		s.invalidate(ctx, conf.Metadata.EventID, conf.Metadata.ExternalUserID)

		settled, err := s.tickets.FindByID(ctx, existing.ID)
		if err != nil || settled == nil {
			return OutcomeActivated, existing, nil
		}
		return OutcomeActivated, settled, nil
	}

	recovered, err := s.recover(ctx, conf)
	if err != nil {
		return "", nil, err
	}
	if recovered == nil {
		// The slot was refilled and settled while the confirmation was in
		// flight. Nothing left to do for this delivery.
		s.metrics.IncReconciliation(conf.Source, metrics.OutcomeReplayed)
		return OutcomeReplayed, nil, nil
	}
	s.metrics.IncReconciliation(conf.Source, metrics.OutcomeRecovered)
	s.logger.Warn(ctx, "pending ticket missing at confirmation, resynthesized from session metadata")
	s.invalidate(ctx, conf.Metadata.EventID, conf.Metadata.ExternalUserID)
	return OutcomeRecovered, recovered, nil
}

// recover rebuilds the ticket row a confirmed payment expected to find. The
// provider metadata is the source of truth; the purchaser row must already
// exist since registration created it before redirecting to checkout.
func (s *Service) recover(ctx context.Context, conf Confirmation) (*models.Ticket, error) {
	userID := conf.Metadata.UserID
	if userID == uuid.Nil {
		purchaser, err := s.users.FindByExternalID(ctx, conf.Metadata.ExternalUserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve purchaser for recovery")
		}
		if purchaser == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchaser not found for confirmed session")
		}
		userID = purchaser.ID
	}

	amount := conf.Metadata.TierPrice
	if amount.IsZero() && conf.AmountCents > 0 {
		amount = decimal.NewFromInt(conf.AmountCents).Div(decimal.NewFromInt(100))
	}

	paymentRef := conf.PaymentRef
	ticket := &models.Ticket{
		ID:             conf.Metadata.TicketID,
		EventID:        conf.Metadata.EventID,
		UserID:         userID,
		ExternalUserID: conf.Metadata.ExternalUserID,
		TierID:         conf.Metadata.TierID,
		TierName:       conf.Metadata.TierName,
		Status:         enums.TicketStatusActive,
		Amount:         amount,
		PaymentID:      &paymentRef,
	}

	created, err := s.tickets.Create(ctx, ticket)
	if err != nil {
		if db.IsUniqueViolation(err, "tickets_event_user_tier_key") {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recreate ticket from session metadata")
	}
	return created, nil
}

// Expire deletes the pending ticket behind an abandoned checkout session.
// Returns false when the ticket already activated or is gone, which is not an
// error: a late expiration must never undo a paid seat.
func (s *Service) Expire(ctx context.Context, source string, ticketID uuid.UUID) (bool, error) {
	ctx = s.logger.WithTicketID(ctx, ticketID.String())

	existing, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket for expiration")
	}
	if existing == nil {
		return false, nil
	}

	deleted, err := s.tickets.DeleteIfPending(ctx, ticketID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete pending ticket")
	}
	if !deleted {
		s.logger.Info(ctx, "expiration skipped, ticket no longer pending")
		return false, nil
	}
	s.metrics.IncReconciliation(source, metrics.OutcomeExpired)
	s.logger.Info(ctx, "pending ticket expired")
	s.invalidate(ctx, existing.EventID, existing.ExternalUserID)
	return true, nil
}

func (s *Service) invalidate(ctx context.Context, eventID uuid.UUID, externalUserID string) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.EventViewKey(eventID.String()),
		s.cache.UserTicketsKey(externalUserID),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed: "+err.Error())
	}
}
