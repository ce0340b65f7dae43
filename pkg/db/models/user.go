package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors a profile provisioned by the external identity provider.
// ExternalID is the provider's subject; rows are created lazily on first
// registration.
type User struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID string    `gorm:"column:external_id;not null;uniqueIndex"`
	Email      string    `gorm:"column:email;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	ImageURL   *string   `gorm:"column:image_url"`
	Role       string    `gorm:"column:role;not null;default:'user'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
