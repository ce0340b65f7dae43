package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
)

// Repository defines persistence operations for the tickets table. Mutations
// that depend on the current status are guarded in SQL and report whether a
// row actually changed, so callers can distinguish a replay from a first
// delivery without locking.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	FindByIDWithUser(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	FindForSlot(ctx context.Context, eventID uuid.UUID, externalUserID, tierID string) (*models.Ticket, error)
	ListActiveByUser(ctx context.Context, externalUserID string) ([]models.Ticket, error)
	CountActiveByEventTier(ctx context.Context, eventID uuid.UUID, tierID string) (int64, error)
	Activate(ctx context.Context, id uuid.UUID, paymentRef string) (bool, error)
	DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	MarkScanned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
