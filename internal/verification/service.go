package verification

import (
	"context"

	"github.com/gatepasshq/gatepass-backend/internal/fulfillment"
	"github.com/gatepasshq/gatepass-backend/internal/payments"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
)

// Service is the client-side reconciliation path. The browser lands back from
// checkout with a session id before the webhook may have arrived; verifying
// the session settles the ticket through the same fulfillment pipeline.
type Service struct {
	gateway     payments.Gateway
	fulfillment *fulfillment.Service
	logger      *logger.Logger
}

// NewService wires the payment verifier.
func NewService(gateway payments.Gateway, f *fulfillment.Service, logg *logger.Logger) *Service {
	return &Service{gateway: gateway, fulfillment: f, logger: logg}
}

// VerifyResult reports the settled ticket and whether this call did the
// settling or merely observed it.
type VerifyResult struct {
	Ticket  *models.Ticket
	Outcome fulfillment.Outcome
}

// Verify resolves a checkout session against the provider and drives the
// referenced ticket to active. Only the purchaser named in the session
// metadata may verify it.
func (s *Service) Verify(ctx context.Context, sessionID, callerExternalID string) (*VerifyResult, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	meta, err := payments.DecodeMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}
	if meta.ExternalUserID != callerExternalID {
		s.logger.Warn(ctx, "verification rejected, session belongs to another purchaser")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "session does not belong to caller")
	}
	if !session.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not completed")
	}

	outcome, ticket, err := s.fulfillment.Reconcile(ctx, fulfillment.Confirmation{
		Source:      metrics.SourceVerifier,
		Metadata:    meta,
		PaymentRef:  session.PaymentReference,
		AmountCents: session.AmountTotalCents,
	})
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Ticket: ticket, Outcome: outcome}, nil
}
