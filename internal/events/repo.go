package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/pagination"
)

// Repository exposes event persistence operations.
type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Event, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an events repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListPublished pages through published events by keyset on (created_at, id),
// newest first. Pass limit+1 to detect whether another page follows.
func (r *repository) ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Event, error) {
	q := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var out []models.Event
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
