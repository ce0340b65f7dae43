package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/api/validators"
	"github.com/gatepasshq/gatepass-backend/internal/registration"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type registrationService interface {
	Register(ctx context.Context, input registration.RegisterInput) (*registration.RegisterResult, error)
}

type registerRequest struct {
	EventID uuid.UUID `json:"eventId" validate:"required"`
	TierID  string    `json:"tierId" validate:"required,min=1,max=64"`
}

type registerResponse struct {
	TicketID    uuid.UUID `json:"ticketId"`
	Status      string    `json:"status"`
	RedirectURL string    `json:"redirectUrl,omitempty"`
	CheckoutURL string    `json:"checkoutUrl,omitempty"`
}

// Register claims a tier slot for the caller and returns either the issued
// ticket (free tiers) or a checkout redirect (paid tiers).
func Register(svc registrationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.ExternalID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller := registration.Caller{
			ExternalID: identity.ExternalID,
			Email:      identity.Email,
			Name:       identity.Name,
		}
		if identity.ImageURL != "" {
			caller.ImageURL = &identity.ImageURL
		}

		result, err := svc.Register(r.Context(), registration.RegisterInput{
			EventID: payload.EventID,
			TierID:  payload.TierID,
			Caller:  caller,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := registerResponse{
			TicketID:    result.Ticket.ID,
			Status:      string(result.Ticket.Status),
			RedirectURL: result.RedirectURL,
			CheckoutURL: result.CheckoutURL,
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
