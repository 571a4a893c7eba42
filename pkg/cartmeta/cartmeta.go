// Package cartmeta encodes cart line items into the key/value metadata
// attached to a Stripe payment intent, and decodes them back when the
// payment-succeeded webhook arrives. The metadata is the only channel that
// carries order detail across the asynchronous confirmation boundary, so the
// records must round-trip everything needed to materialize an order.
package cartmeta

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueMaxLen is Stripe's cap on a single metadata value. A full record that
// would exceed it is degraded to the fallback shape instead of being dropped.
const ValueMaxLen = 500

// Metadata keys shared by the encoder and the webhook materializer.
const (
	KeyUserID     = "userId"
	KeyUserEmail  = "userEmail"
	KeyFullName   = "fullName"
	KeyPhone      = "phoneNumber"
	KeyAddress    = "address"
	KeyCity       = "city"
	KeyPostalCode = "postalCode"
	KeyCountry    = "country"
	KeyItemCount  = "itemCount"
)

const (
	TypePhysical   = "physical"
	TypeExperience = "experience"
)

// LineRecord is the compact per-line record stored under cart_N. The same
// struct covers the physical, experience and degraded fallback shapes; decode
// helpers paper over which one arrived.
type LineRecord struct {
	Type string `json:"type"`

	// Physical lines.
	ProductID    string `json:"productId,omitempty"`
	ProductTitle string `json:"productTitle,omitempty"`
	Variant      string `json:"variant,omitempty"`
	SKU          string `json:"sku,omitempty"`

	// Experience lines.
	ExperienceSlug       string   `json:"experienceSlug,omitempty"`
	ExperienceTitle      string   `json:"experienceTitle,omitempty"`
	Location             string   `json:"location,omitempty"`
	Addons               []string `json:"addons,omitempty"`
	VoucherType          string   `json:"voucherType,omitempty"`
	VoucherRecipientName string   `json:"voucherRecipientName,omitempty"`
	SelectedDate         string   `json:"selectedDate,omitempty"`

	ImageURL   string  `json:"imageUrl,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	UnitPrice  float64 `json:"unitPrice,omitempty"`
	TotalPrice float64 `json:"totalPrice,omitempty"`

	// Fallback shape: {type, title, qty, total}.
	Title string  `json:"title,omitempty"`
	Qty   int     `json:"qty,omitempty"`
	Total float64 `json:"total,omitempty"`
}

// Key returns the metadata key for the line at the given index.
func Key(index int) string {
	return "cart_" + strconv.Itoa(index)
}

// EncodeLine serializes a record, degrading to the fallback shape when the
// full serialization would not fit in a single metadata value. The returned
// bool reports whether degradation happened.
func EncodeLine(rec LineRecord) (string, bool, error) {
	full, err := json.Marshal(rec)
	if err != nil {
		return "", false, fmt.Errorf("marshal line record: %w", err)
	}
	if len(full) <= ValueMaxLen {
		return string(full), false, nil
	}

	fallback := LineRecord{
		Type:  rec.Type,
		Title: rec.DisplayTitle(),
		Qty:   rec.EffectiveQuantity(),
		Total: rec.LineTotal(),
	}
	compact, err := json.Marshal(fallback)
	if err != nil {
		return "", false, fmt.Errorf("marshal fallback record: %w", err)
	}
	// A huge title can push even the fallback over the cap. Trim it until the
	// marshaled record fits; everything else in the record is fixed-size.
	for len(compact) > ValueMaxLen && fallback.Title != "" {
		title := []rune(fallback.Title)
		drop := len(compact) - ValueMaxLen
		if drop > len(title) {
			drop = len(title)
		}
		fallback.Title = string(title[:len(title)-drop])
		compact, err = json.Marshal(fallback)
		if err != nil {
			return "", false, fmt.Errorf("marshal fallback record: %w", err)
		}
	}
	return string(compact), true, nil
}

// DecodeLine parses one cart_N value, accepting both the full and the
// fallback record shapes.
func DecodeLine(value string) (LineRecord, error) {
	var rec LineRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return LineRecord{}, fmt.Errorf("unmarshal line record: %w", err)
	}
	if rec.Type != TypePhysical && rec.Type != TypeExperience {
		return LineRecord{}, fmt.Errorf("unknown line record type %q", rec.Type)
	}
	return rec, nil
}

// IsFallback reports whether the record arrived in the degraded shape.
func (r LineRecord) IsFallback() bool {
	return r.Title != "" && r.ProductTitle == "" && r.ExperienceTitle == ""
}

// DisplayTitle returns the best available human-readable title.
func (r LineRecord) DisplayTitle() string {
	switch {
	case r.ProductTitle != "":
		return r.ProductTitle
	case r.ExperienceTitle != "":
		return r.ExperienceTitle
	case r.Title != "":
		return r.Title
	case r.ExperienceSlug != "":
		return r.ExperienceSlug
	default:
		return r.ProductID
	}
}

// Reference returns the product/experience identifier the line points at.
func (r LineRecord) Reference() string {
	if r.Type == TypeExperience && r.ExperienceSlug != "" {
		return r.ExperienceSlug
	}
	return r.ProductID
}

// EffectiveQuantity returns the quantity regardless of record shape,
// defaulting to one.
func (r LineRecord) EffectiveQuantity() int {
	if r.Quantity > 0 {
		return r.Quantity
	}
	if r.Qty > 0 {
		return r.Qty
	}
	return 1
}

// LineTotal returns the line total regardless of record shape, falling back
// to unit price times quantity when no explicit total survived.
func (r LineRecord) LineTotal() float64 {
	if r.TotalPrice > 0 {
		return r.TotalPrice
	}
	if r.Total > 0 {
		return r.Total
	}
	return r.UnitPrice * float64(r.EffectiveQuantity())
}

// EffectiveUnitPrice returns the per-unit price, deriving it from the total
// when the compact shape dropped the unit figure.
func (r LineRecord) EffectiveUnitPrice() float64 {
	if r.UnitPrice > 0 {
		return r.UnitPrice
	}
	qty := r.EffectiveQuantity()
	if qty == 0 {
		return 0
	}
	return r.LineTotal() / float64(qty)
}
