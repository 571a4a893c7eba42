package vouchers

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
)

// GenerateRequest is the voucher-generation body used by the date
// confirmation flow and the admin endpoint.
type GenerateRequest struct {
	OrderItemID          string    `json:"orderItemId" validate:"required,uuid"`
	UserID               string    `json:"userId" validate:"required,uuid"`
	ProductSlug          string    `json:"productSlug" validate:"required"`
	SelectedDate         time.Time `json:"selectedDate" validate:"required"`
	Addons               []string  `json:"addons,omitempty"`
	VoucherRecipientName string    `json:"voucherRecipientName,omitempty"`
	Location             string    `json:"location,omitempty"`
}

// GenerateResponse reports the voucher created (or already present) for the
// order item.
type GenerateResponse struct {
	Success   bool      `json:"success"`
	VoucherID uuid.UUID `json:"voucherId"`
}

// RedeemRequest identifies the voucher being redeemed at the venue.
type RedeemRequest struct {
	VoucherID string `json:"voucherId" validate:"required,uuid"`
}

// RedeemResult is the structured business outcome of a redemption attempt.
type RedeemResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyResponse is the public QR-verification payload. It intentionally
// carries no owner identity.
type VerifyResponse struct {
	VoucherID   uuid.UUID           `json:"voucherId"`
	ProductSlug string              `json:"productSlug"`
	Status      enums.VoucherStatus `json:"status"`
	ServiceDate time.Time           `json:"serviceDate"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	RedeemedAt  *time.Time          `json:"redeemedAt,omitempty"`
}

// VoucherDTO is the account-area transport shape.
type VoucherDTO struct {
	ID            uuid.UUID           `json:"id"`
	ProductSlug   string              `json:"product_slug"`
	RecipientName string              `json:"recipient_name"`
	Location      *string             `json:"location,omitempty"`
	Addons        []string            `json:"addons,omitempty"`
	ServiceDate   time.Time           `json:"service_date"`
	ExpiresAt     time.Time           `json:"expires_at"`
	Status        enums.VoucherStatus `json:"status"`
	RedeemedAt    *time.Time          `json:"redeemed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// VoucherList wraps paginated vouchers plus the next cursor.
type VoucherList struct {
	Vouchers   []VoucherDTO `json:"vouchers"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func fromModel(v *models.Voucher) VoucherDTO {
	return VoucherDTO{
		ID:            v.ID,
		ProductSlug:   v.ProductSlug,
		RecipientName: v.RecipientName,
		Location:      v.Location,
		Addons:        v.Addons,
		ServiceDate:   v.ServiceDate,
		ExpiresAt:     v.ExpiresAt,
		Status:        v.Status,
		RedeemedAt:    v.RedeemedAt,
		CreatedAt:     v.CreatedAt,
	}
}
