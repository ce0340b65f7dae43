package controllers

import (
	"context"
	"net/http"

	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/api/validators"
	"github.com/gatepasshq/gatepass-backend/internal/verification"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type verificationService interface {
	Verify(ctx context.Context, sessionID, callerExternalID string) (*verification.VerifyResult, error)
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required,min=1,max=255"`
}

type verifyPaymentResponse struct {
	TicketID string `json:"ticketId,omitempty"`
	Status   string `json:"status,omitempty"`
	Outcome  string `json:"outcome"`
}

// VerifyPayment settles a checkout session from the returning browser. It is
// safe to call before, after, or instead of the webhook delivery.
func VerifyPayment(svc verificationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		callerID := middleware.ExternalUserIDFromContext(r.Context())
		if callerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), payload.SessionID, callerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := verifyPaymentResponse{Outcome: string(result.Outcome)}
		if result.Ticket != nil {
			resp.TicketID = result.Ticket.ID.String()
			resp.Status = string(result.Ticket.Status)
		}
		responses.WriteSuccess(w, resp)
	}
}
