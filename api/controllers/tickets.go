package controllers

import (
	"context"
	"net/http"

	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type ticketListService interface {
	ListMine(ctx context.Context, externalUserID string) ([]tickets.TicketView, error)
}

// MyTickets returns the caller's settled tickets.
func MyTickets(svc ticketListService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable"))
			return
		}

		callerID := middleware.ExternalUserIDFromContext(r.Context())
		if callerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller identity"))
			return
		}

		views, err := svc.ListMine(r.Context(), callerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}
