package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
)

// OrderItem snapshots one reconstructed cart line. Experience-only columns
// are nullable and stay empty for merchandise lines.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ItemType   enums.ItemType  `gorm:"column:item_type;type:text;not null"`
	ProductRef string          `gorm:"column:product_ref;not null"`
	Title      string          `gorm:"column:title;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`
	ImageURL   *string         `gorm:"column:image_url"`

	// Merchandise fields.
	Variant *string `gorm:"column:variant"`
	SKU     *string `gorm:"column:sku"`

	// Experience fields.
	Location         *string    `gorm:"column:location"`
	Addons           []string   `gorm:"column:addons;type:jsonb;serializer:json"`
	VoucherType      *string    `gorm:"column:voucher_type"`
	VoucherRecipient *string    `gorm:"column:voucher_recipient"`
	SelectedDate     *time.Time `gorm:"column:selected_date"`
	ConfirmedDate    *time.Time `gorm:"column:confirmed_date"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
