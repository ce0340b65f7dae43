package tickets

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

// ListCache reads and writes the cached ticket list per purchaser.
type ListCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	UserTicketsKey(externalUserID string) string
}

const listCacheTTL = 2 * time.Minute

// Service serves the purchaser's ticket wallet. Pending tickets are an
// implementation detail of checkout and never appear here.
type Service struct {
	repo   Repository
	cache  ListCache
	logger *logger.Logger
}

// NewService wires the ticket listing service.
func NewService(repo Repository, cache ListCache, logg *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logg}
}

// ListMine returns the caller's settled tickets, newest first.
func (s *Service) ListMine(ctx context.Context, externalUserID string) ([]TicketView, error) {
	if externalUserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchaser identity is required")
	}

	var key string
	if s.cache != nil {
		key = s.cache.UserTicketsKey(externalUserID)
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			var views []TicketView
			if err := json.Unmarshal([]byte(cached), &views); err == nil {
				return views, nil
			}
		}
	}

	rows, err := s.repo.ListActiveByUser(ctx, externalUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tickets")
	}

	views := make([]TicketView, 0, len(rows))
	for i := range rows {
		views = append(views, viewFromModel(&rows[i]))
	}

	if s.cache != nil && key != "" {
		if payload, err := json.Marshal(views); err == nil {
			if err := s.cache.Set(ctx, key, string(payload), listCacheTTL); err != nil {
				s.logger.Warn(ctx, "cache ticket list failed: "+err.Error())
			}
		}
	}
	return views, nil
}
