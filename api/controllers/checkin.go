package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/api/validators"
	"github.com/gatepasshq/gatepass-backend/internal/checkin"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type checkInService interface {
	CheckIn(ctx context.Context, input checkin.CheckInInput) (*checkin.CheckInResult, error)
}

type checkInRequest struct {
	TicketID uuid.UUID `json:"ticketId" validate:"required"`
	EventID  uuid.UUID `json:"eventId" validate:"required"`
}

type checkInResponse struct {
	TicketID     uuid.UUID `json:"ticketId"`
	AttendeeName string    `json:"attendeeName"`
	TierName     string    `json:"tierName"`
	ScannedAt    time.Time `json:"scannedAt"`
}

// CheckIn admits one scanned ticket at the gate. Organizer only.
func CheckIn(svc checkInService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "check-in service unavailable"))
			return
		}

		callerID := middleware.ExternalUserIDFromContext(r.Context())
		if callerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		var payload checkInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckIn(r.Context(), checkin.CheckInInput{
			TicketID:            payload.TicketID,
			EventID:             payload.EventID,
			OrganizerExternalID: callerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkInResponse{
			TicketID:     result.TicketID,
			AttendeeName: result.AttendeeName,
			TierName:     result.TierName,
			ScannedAt:    result.ScannedAt,
		})
	}
}
