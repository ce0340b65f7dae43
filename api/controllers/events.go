package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/pagination"
)

type eventViewService interface {
	GetView(ctx context.Context, eventID uuid.UUID) (*events.EventView, error)
}

type eventListService interface {
	ListPublished(ctx context.Context, params pagination.Params) (*events.EventPage, error)
}

// EventView serves the public event page with live tier availability.
func EventView(svc eventViewService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := uuid.Parse(chi.URLParam(r, "eventId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		view, err := svc.GetView(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// EventList serves the public event catalog, cursor-paginated.
func EventList(svc eventListService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = limit
		}

		page, err := svc.ListPublished(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
