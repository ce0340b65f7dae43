package registration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/fulfillment"
	"github.com/gatepasshq/gatepass-backend/internal/payments"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/internal/users"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
	"github.com/gatepasshq/gatepass-backend/pkg/types"
)

// FreePaymentRef marks tickets that never went through the payment gateway.
const FreePaymentRef = "free"

// Registration paths for metrics.
const (
	pathFree = "free"
	pathPaid = "paid"
)

// TicketsRedirectPath is where free registrations land, no checkout needed.
const TicketsRedirectPath = "/dashboard/tickets"

// Service coordinates one registration: resolve the purchaser, claim the
// tier slot, and either settle immediately (free tier) or open a hosted
// checkout session around a pending ticket.
type Service struct {
	events  events.Repository
	users   users.Repository
	tickets tickets.Repository
	gateway payments.Gateway
	cache   fulfillment.CacheInvalidator
	metrics *metrics.FulfillmentMetrics
	logger  *logger.Logger
	baseURL string
}

// NewService wires the registration coordinator.
func NewService(
	eventRepo events.Repository,
	userRepo users.Repository,
	ticketRepo tickets.Repository,
	gateway payments.Gateway,
	cache fulfillment.CacheInvalidator,
	m *metrics.FulfillmentMetrics,
	logg *logger.Logger,
	baseURL string,
) *Service {
	return &Service{
		events:  eventRepo,
		users:   userRepo,
		tickets: ticketRepo,
		gateway: gateway,
		cache:   cache,
		metrics: m,
		logger:  logg,
		baseURL: baseURL,
	}
}

// Register runs the full registration flow for one caller and tier.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	ctx = s.logger.WithEventID(ctx, input.EventID.String())
	ctx = s.logger.WithUserID(ctx, input.Caller.ExternalID)

	event, err := s.events.FindByID(ctx, input.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}

	tier, ok := event.Tiers.Find(input.TierID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ticket tier").
			WithDetails(map[string]string{"tierId": input.TierID})
	}

	if tier.Capacity > 0 {
		sold, err := s.tickets.CountActiveByEventTier(ctx, event.ID, tier.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count tier sales")
		}
		if sold >= int64(tier.Capacity) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket tier sold out")
		}
	}

	purchaser, err := s.ensurePurchaser(ctx, input.Caller)
	if err != nil {
		return nil, err
	}

	if err := s.clearSlot(ctx, event.ID, input.Caller.ExternalID, tier.ID); err != nil {
		return nil, err
	}

	if tier.Price.IsZero() {
		return s.registerFree(ctx, event, tier.ID, tier.Name, purchaser)
	}
	return s.registerPaid(ctx, event, tier, purchaser)
}

// ensurePurchaser resolves the caller to a local user row, provisioning one
// lazily on first registration. A row matched by email gets its identity
// subject backfilled instead of a duplicate insert.
func (s *Service) ensurePurchaser(ctx context.Context, caller Caller) (*models.User, error) {
	found, err := s.users.FindByExternalID(ctx, caller.ExternalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve purchaser")
	}
	if found != nil {
		return found, nil
	}

	if caller.Email != "" {
		byEmail, err := s.users.FindByEmail(ctx, caller.Email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve purchaser by email")
		}
		if byEmail != nil {
			if err := s.users.SetExternalID(ctx, byEmail.ID, caller.ExternalID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "backfill purchaser identity")
			}
			byEmail.ExternalID = caller.ExternalID
			return byEmail, nil
		}
	}

	created, err := s.users.Create(ctx, &models.User{
		ID:         uuid.New(),
		ExternalID: caller.ExternalID,
		Email:      caller.Email,
		Name:       caller.Name,
		ImageURL:   caller.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision purchaser")
	}
	return created, nil
}

// clearSlot enforces one ticket per (event, purchaser, tier). A settled
// ticket is a hard conflict; a stale pending one is an abandoned checkout and
// gets replaced by this attempt.
func (s *Service) clearSlot(ctx context.Context, eventID uuid.UUID, externalUserID, tierID string) error {
	existing, err := s.tickets.FindForSlot(ctx, eventID, externalUserID, tierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing registration")
	}
	if existing == nil {
		return nil
	}
	if existing.Status != enums.TicketStatusPending {
		return pkgerrors.New(pkgerrors.CodeConflict, "already registered for this tier")
	}

	deleted, err := s.tickets.DeleteIfPending(ctx, existing.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace abandoned registration")
	}
	if !deleted {
		// The pending ticket settled between the read and the delete.
		return pkgerrors.New(pkgerrors.CodeConflict, "already registered for this tier")
	}
	s.logger.Info(ctx, "abandoned pending registration replaced")
	return nil
}

func (s *Service) registerFree(ctx context.Context, event *models.Event, tierID, tierName string, purchaser *models.User) (*RegisterResult, error) {
	paymentRef := FreePaymentRef
	ticket, err := s.tickets.Create(ctx, &models.Ticket{
		ID:             uuid.New(),
		EventID:        event.ID,
		UserID:         purchaser.ID,
		ExternalUserID: purchaser.ExternalID,
		TierID:         tierID,
		TierName:       tierName,
		Status:         enums.TicketStatusActive,
		Amount:         decimal.Zero,
		PaymentID:      &paymentRef,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "tickets_event_user_tier_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already registered for this tier")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create free ticket")
	}

	s.metrics.IncRegistration(pathFree)
	s.logger.Info(ctx, "free ticket issued")
	s.invalidate(ctx, event.ID, purchaser.ExternalID)

	return &RegisterResult{
		Ticket:      ticket,
		RedirectURL: TicketsRedirectPath,
	}, nil
}

func (s *Service) registerPaid(ctx context.Context, event *models.Event, tier types.EventTier, purchaser *models.User) (*RegisterResult, error) {
	pending, err := s.tickets.Create(ctx, &models.Ticket{
		ID:             uuid.New(),
		EventID:        event.ID,
		UserID:         purchaser.ID,
		ExternalUserID: purchaser.ExternalID,
		TierID:         tier.ID,
		TierName:       tier.Name,
		Status:         enums.TicketStatusPending,
		Amount:         tier.Price,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "tickets_event_user_tier_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already registered for this tier")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pending ticket")
	}

	session, err := s.gateway.CreateSession(ctx, payments.CreateSessionInput{
		CustomerEmail: purchaser.Email,
		SuccessURL:    s.baseURL + TicketsRedirectPath + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     fmt.Sprintf("%s/events/%s", s.baseURL, event.ID),
		LineItemName:  fmt.Sprintf("%s - %s", event.Title, tier.Name),
		UnitAmount:    tier.Price,
		Metadata: payments.SessionMetadata{
			TicketID:       pending.ID,
			EventID:        event.ID,
			ExternalUserID: purchaser.ExternalID,
			UserID:         purchaser.ID,
			TierID:         tier.ID,
			TierName:       tier.Name,
			TierPrice:      tier.Price,
		},
	})
	if err != nil {
		// Compensate so the slot is not held hostage by a gateway outage.
		if _, delErr := s.tickets.DeleteIfPending(ctx, pending.ID); delErr != nil {
			s.logger.Error(ctx, "orphaned pending ticket after gateway failure", delErr)
		}
		return nil, err
	}

	s.metrics.IncRegistration(pathPaid)
	s.logger.Info(ctx, "checkout session opened")

	return &RegisterResult{
		Ticket:      pending,
		CheckoutURL: session.URL,
		Paid:        true,
	}, nil
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
