package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is materialized exactly once per successful Stripe payment intent.
// The unique index on payment_intent_id is the idempotency guard that makes
// duplicate webhook deliveries collapse into the existing row.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentIntentID string          `gorm:"column:payment_intent_id;not null;uniqueIndex:uq_orders_payment_intent"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`

	// Contact/shipping snapshot captured at checkout.
	Email      string `gorm:"column:email;not null"`
	FullName   string `gorm:"column:full_name;not null"`
	Phone      string `gorm:"column:phone"`
	Address    string `gorm:"column:address"`
	City       string `gorm:"column:city"`
	PostalCode string `gorm:"column:postal_code"`
	Country    string `gorm:"column:country"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
