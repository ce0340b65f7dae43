package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/pagination"
)

// ViewCache reads and writes cached event views.
type ViewCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	EventViewKey(eventID string) string
}

const viewCacheTTL = 5 * time.Minute

// Service serves the public event page with per-tier availability.
type Service struct {
	events  Repository
	tickets tickets.Repository
	cache   ViewCache
	logger  *logger.Logger
}

// NewService wires the event view service.
func NewService(eventRepo Repository, ticketRepo tickets.Repository, cache ViewCache, logg *logger.Logger) *Service {
	return &Service{
		events:  eventRepo,
		tickets: ticketRepo,
		cache:   cache,
		logger:  logg,
	}
}

// GetView returns the event page payload, served from cache when fresh. A
// cache failure degrades to a database read, never to an error.
func (s *Service) GetView(ctx context.Context, eventID uuid.UUID) (*EventView, error) {
	var key string
	if s.cache != nil {
		key = s.cache.EventViewKey(eventID.String())
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			var view EventView
			if err := json.Unmarshal([]byte(cached), &view); err == nil {
				return &view, nil
			}
		}
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}

	view := viewFromModel(event)
	for _, tier := range event.Tiers {
		sold, err := s.tickets.CountActiveByEventTier(ctx, event.ID, tier.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count tier sales")
		}
		tv := TierView{
			ID:       tier.ID,
			Name:     tier.Name,
			Price:    tier.Price,
			Capacity: tier.Capacity,
			Sold:     sold,
		}
		if tier.Capacity > 0 {
			remaining := int64(tier.Capacity) - sold
			if remaining < 0 {
				remaining = 0
			}
			tv.Remaining = &remaining
		}
		view.Tiers = append(view.Tiers, tv)
	}

	if s.cache != nil && key != "" {
		if payload, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, key, string(payload), viewCacheTTL); err != nil {
				s.logger.Warn(ctx, "cache event view failed: "+err.Error())
			}
		}
	}
	return view, nil
}

// ListPublished pages through the public event catalog, newest first.
func (s *Service) ListPublished(ctx context.Context, params pagination.Params) (*EventPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.events.ListPublished(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list events")
	}

	page := &EventPage{Items: make([]EventSummary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Items = append(page.Items, summaryFromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
