package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
)

// Voucher is issued once per experience order item after its service date is
// confirmed. Ownership never changes after creation; every read, download and
// redeem must match UserID against the caller.
type Voucher struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderItemID   uuid.UUID           `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex:uq_vouchers_order_item"`
	ProductSlug   string              `gorm:"column:product_slug;not null"`
	RecipientName string              `gorm:"column:recipient_name;not null"`
	Location      *string             `gorm:"column:location"`
	Addons        []string            `gorm:"column:addons;type:jsonb;serializer:json"`
	ServiceDate   time.Time           `gorm:"column:service_date;not null"`
	ExpiresAt     time.Time           `gorm:"column:expires_at;not null"`
	Status        enums.VoucherStatus `gorm:"column:status;type:text;not null;default:'active'"`
	RedeemedAt    *time.Time          `gorm:"column:redeemed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
