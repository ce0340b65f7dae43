package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gatepasshq/gatepass-backend/pkg/enums"
)

// Ticket is the central fulfillment record. At most one row may exist per
// (event, purchaser, tier); the constraint lives in the database, not here.
// Amount and PaymentID are immutable once the ticket reaches active/scanned.
type Ticket struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID          `gorm:"column:event_id;type:uuid;not null"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	ExternalUserID string             `gorm:"column:external_user_id;not null"`
	TierID         string             `gorm:"column:tier_id;not null"`
	TierName       string             `gorm:"column:tier_name;not null"`
	Status         enums.TicketStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount         decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentID      *string            `gorm:"column:payment_id"`
	PurchaseDate   time.Time          `gorm:"column:purchase_date;autoCreateTime"`
	IsScanned      bool               `gorm:"column:is_scanned;not null;default:false"`
	ScannedAt      *time.Time         `gorm:"column:scanned_at"`
	User           *User              `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
