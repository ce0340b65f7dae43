package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/gatepasshq/gatepass-backend/internal/fulfillment"
	"github.com/gatepasshq/gatepass-backend/internal/payments"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
)

type ServiceParams struct {
	Fulfillment *fulfillment.Service
	Guard       *IdempotencyGuard
	Logger      *logger.Logger
}

// Service is the webhook reconciler. It consumes verified checkout events and
// drives the referenced tickets to their terminal state. Deliveries arrive at
// least once and in no particular order; everything downstream tolerates both.
type Service struct {
	fulfillment *fulfillment.Service
	guard       *IdempotencyGuard
	logger      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Fulfillment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		fulfillment: params.Fulfillment,
		guard:       params.Guard,
		logger:      params.Logger,
	}, nil
}

// HandleEvent processes one signature-verified provider event. Unrecognized
// event types are acknowledged without action so the provider stops retrying
// them. A processing failure releases the idempotency mark before returning,
// keeping the provider's retry path open.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
	default:
		return nil
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event idempotency")
		}
		if seen {
			s.logger.Info(ctx, "webhook event already processed, skipping")
			return nil
		}
	}

	err := s.dispatch(ctx, event)
	if err != nil && s.guard != nil {
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logger.Error(ctx, "release idempotency mark after failure", delErr)
		}
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCompleted(ctx, &session)
	case stripe.EventTypeCheckoutSessionExpired:
		return s.handleExpired(ctx, &session)
	default:
		return nil
	}
}

func (s *Service) handleCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	meta, err := payments.DecodeMetadata(session.Metadata)
	if err != nil {
		return err
	}

	paymentRef := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentRef = session.PaymentIntent.ID
	}

	_, _, err = s.fulfillment.Reconcile(ctx, fulfillment.Confirmation{
		Source:      metrics.SourceWebhook,
		Metadata:    meta,
		PaymentRef:  paymentRef,
		AmountCents: session.AmountTotal,
	})
	return err
}

func (s *Service) handleExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	ticketID, err := payments.TicketIDFromMetadata(session.Metadata)
	if err != nil {
		// Sessions opened outside the registration flow carry no ticket
		// reference. Nothing to clean up.
		s.logger.Warn(ctx, "expired session without ticket metadata, ignoring")
		return nil
	}
	_, err = s.fulfillment.Expire(ctx, metrics.SourceWebhook, ticketID)
	return err
}
