package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatepasshq/gatepass-backend/pkg/types"
)

// Event is owned by the content/CRUD side of the platform; the fulfillment
// core only reads it to validate existence, tier data, and organizer identity.
type Event struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title               string           `gorm:"column:title;not null"`
	Description         string           `gorm:"column:description;not null"`
	Location            string           `gorm:"column:location;not null"`
	StartDate           time.Time        `gorm:"column:start_date;not null"`
	EndDate             time.Time        `gorm:"column:end_date;not null"`
	ImageURLs           []string         `gorm:"column:image_urls;type:jsonb;serializer:json"`
	Tiers               types.EventTiers `gorm:"column:tiers;type:jsonb;serializer:json"`
	IsPublished         bool             `gorm:"column:is_published;not null;default:false"`
	Category            string           `gorm:"column:category;not null"`
	OrganizerID         uuid.UUID        `gorm:"column:organizer_id;type:uuid;not null"`
	ExternalOrganizerID string           `gorm:"column:external_organizer_id;not null"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
