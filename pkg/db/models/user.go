package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
)

// User represents a storefront account. The contact columns hold the latest
// checkout snapshot and are refreshed best-effort after each order.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	Phone        *string        `gorm:"column:phone"`
	Address      *string        `gorm:"column:address"`
	City         *string        `gorm:"column:city"`
	PostalCode   *string        `gorm:"column:postal_code"`
	Country      *string        `gorm:"column:country"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
