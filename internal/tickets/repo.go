package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tickets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindByIDWithUser(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindForSlot(ctx context.Context, eventID uuid.UUID, externalUserID, tierID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND external_user_id = ? AND tier_id = ?", eventID, externalUserID, tierID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListActiveByUser(ctx context.Context, externalUserID string) ([]models.Ticket, error) {
	var out []models.Ticket
	err := r.db.WithContext(ctx).
		Where("external_user_id = ? AND status IN ?", externalUserID, []enums.TicketStatus{enums.TicketStatusActive, enums.TicketStatusScanned}).
		Order("purchase_date DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CountActiveByEventTier(ctx context.Context, eventID uuid.UUID, tierID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("event_id = ? AND tier_id = ? AND status IN ?", eventID, tierID, []enums.TicketStatus{enums.TicketStatusActive, enums.TicketStatusScanned}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Activate flips a pending ticket to active and stamps the payment reference.
// The status guard makes the transition single-shot: a second delivery of the
// same payment event matches zero rows and returns false.
func (r *repository) Activate(ctx context.Context, id uuid.UUID, paymentRef string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, enums.TicketStatusPending).
		Updates(map[string]any{
			"status":        enums.TicketStatusActive,
			"payment_id":    paymentRef,
			"purchase_date": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteIfPending removes an abandoned pending ticket. Tickets that already
// activated are untouched, so a late expiration event can never claw back a
// paid seat.
func (r *repository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.TicketStatusPending).
		Delete(&models.Ticket{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkScanned records entry for an active ticket. Guarded on status so two
// gate scanners racing on the same ticket admit exactly one.
func (r *repository) MarkScanned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, enums.TicketStatusActive).
		Updates(map[string]any{
			"status":     enums.TicketStatusScanned,
			"is_scanned": true,
			"scanned_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
