package checkout

// CartAddon mirrors the per-experience addon selection sent by the storefront.
type CartAddon struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Kind    string  `json:"kind" validate:"omitempty,oneof=standard location voucher"`
	MapLink string  `json:"mapLink,omitempty"`
}

// CartItemRequest is one purchasable selection from the storefront cart. A
// line with an experienceSlug is an experience, everything else is
// merchandise.
type CartItemRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`

	// Merchandise fields.
	Title           string            `json:"title,omitempty"`
	UnitPrice       float64           `json:"unitPrice,omitempty"`
	SelectedVariant map[string]string `json:"selectedVariant,omitempty"`
	SKU             string            `json:"sku,omitempty"`

	// Experience fields. Price is the addon-inclusive figure quoted to the
	// customer on the product page.
	ExperienceSlug       string      `json:"experienceSlug,omitempty"`
	ExperienceTitle      string      `json:"experienceTitle,omitempty"`
	Price                float64     `json:"price,omitempty"`
	StoredAddons         []CartAddon `json:"storedAddons,omitempty"`
	StoredLocationName   string      `json:"storedLocationName,omitempty"`
	StoredVoucherName    string      `json:"storedVoucherName,omitempty"`
	VoucherRecipientName string      `json:"voucherRecipientName,omitempty"`
	SelectedDate         string      `json:"selectedDate,omitempty"`

	ImageURL string `json:"imageUrl,omitempty"`
}

// PersonalInfo is the contact/shipping snapshot captured at checkout.
type PersonalInfo struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phoneNumber,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CreatePaymentIntentRequest is the payment-intents endpoint body.
type CreatePaymentIntentRequest struct {
	CartItems    []CartItemRequest `json:"cartItems" validate:"required,min=1,dive"`
	PersonalInfo PersonalInfo      `json:"personalInfo" validate:"required"`
}

// CreatePaymentIntentResponse returns the provider handle and the
// server-computed charge in minor units.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
}
