package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
)

// MaterializeOrderLine is one cart line reconstructed from payment metadata.
type MaterializeOrderLine struct {
	ItemType   enums.ItemType
	ProductRef string
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	ImageURL   *string

	Variant *string
	SKU     *string

	Location         *string
	Addons           []string
	VoucherType      *string
	VoucherRecipient *string
	SelectedDate     *time.Time
}

// MaterializeOrderInput is everything needed to create an order from a
// succeeded payment intent.
type MaterializeOrderInput struct {
	UserID          uuid.UUID
	PaymentIntentID string
	TotalPrice      decimal.Decimal

	Email      string
	FullName   string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string

	Lines []MaterializeOrderLine
}

// OrderItemDTO is the transport shape of one order line.
type OrderItemDTO struct {
	ID               uuid.UUID       `json:"id"`
	ItemType         enums.ItemType  `json:"item_type"`
	ProductRef       string          `json:"product_ref"`
	Title            string          `json:"title"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ImageURL         *string         `json:"image_url,omitempty"`
	Variant          *string         `json:"variant,omitempty"`
	SKU              *string         `json:"sku,omitempty"`
	Location         *string         `json:"location,omitempty"`
	Addons           []string        `json:"addons,omitempty"`
	VoucherType      *string         `json:"voucher_type,omitempty"`
	VoucherRecipient *string         `json:"voucher_recipient,omitempty"`
	SelectedDate     *time.Time      `json:"selected_date,omitempty"`
	ConfirmedDate    *time.Time      `json:"confirmed_date,omitempty"`
}

// OrderDTO is the transport shape of an order with its lines.
type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	Phone           string          `json:"phone,omitempty"`
	Address         string          `json:"address,omitempty"`
	City            string          `json:"city,omitempty"`
	PostalCode      string          `json:"postal_code,omitempty"`
	Country         string          `json:"country,omitempty"`
	Items           []OrderItemDTO  `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderSummary is the compact shape returned by the list endpoint.
type OrderSummary struct {
	ID         uuid.UUID       `json:"id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ConfirmDateRequest is the admin date-confirmation body.
type ConfirmDateRequest struct {
	ConfirmedDate time.Time `json:"confirmed_date" validate:"required"`
}

func fromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		items = append(items, itemFromModel(&o.Items[i]))
	}
	return &OrderDTO{
		ID:              o.ID,
		PaymentIntentID: o.PaymentIntentID,
		TotalPrice:      o.TotalPrice,
		Email:           o.Email,
		FullName:        o.FullName,
		Phone:           o.Phone,
		Address:         o.Address,
		City:            o.City,
		PostalCode:      o.PostalCode,
		Country:         o.Country,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

func itemFromModel(item *models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:               item.ID,
		ItemType:         item.ItemType,
		ProductRef:       item.ProductRef,
		Title:            item.Title,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		TotalPrice:       item.TotalPrice,
		ImageURL:         item.ImageURL,
		Variant:          item.Variant,
		SKU:              item.SKU,
		Location:         item.Location,
		Addons:           item.Addons,
		VoucherType:      item.VoucherType,
		VoucherRecipient: item.VoucherRecipient,
		SelectedDate:     item.SelectedDate,
		ConfirmedDate:    item.ConfirmedDate,
	}
}
