package checkout

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stripelib "github.com/stripe/stripe-go/v84"

	"github.com/driftkings-bg/driftkings-backend/pkg/cartmeta"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
)

// Currency is the fixed settlement currency for all storefront charges.
const Currency = "bgn"

const (
	defaultLocationName = "N/A"
	defaultVoucherType  = "Digital"
)

type paymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*stripelib.PaymentIntent, error)
}

// Service validates a cart snapshot, recomputes the authoritative total, and
// creates the provider transaction carrying the cart in its metadata.
type Service interface {
	CreatePaymentIntent(ctx context.Context, userID uuid.UUID, userEmail string, req CreatePaymentIntentRequest) (*CreatePaymentIntentResponse, error)
}

type service struct {
	stripe paymentIntentCreator
	logg   *logger.Logger
}

// NewService builds the payment intent encoder.
func NewService(stripe paymentIntentCreator, logg *logger.Logger) (Service, error) {
	if stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &service{stripe: stripe, logg: logg}, nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, userEmail string, req CreatePaymentIntentRequest) (*CreatePaymentIntentResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCart(req.CartItems); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		cartmeta.KeyUserID:     userID.String(),
		cartmeta.KeyUserEmail:  userEmail,
		cartmeta.KeyFullName:   req.PersonalInfo.FullName,
		cartmeta.KeyPhone:      req.PersonalInfo.Phone,
		cartmeta.KeyAddress:    req.PersonalInfo.Address,
		cartmeta.KeyCity:       req.PersonalInfo.City,
		cartmeta.KeyPostalCode: req.PersonalInfo.PostalCode,
		cartmeta.KeyCountry:    req.PersonalInfo.Country,
		cartmeta.KeyItemCount:  strconv.Itoa(len(req.CartItems)),
	}

	total := decimal.Zero
	for i, item := range req.CartItems {
		rec, lineTotal := buildLineRecord(item)
		total = total.Add(lineTotal)

		encoded, degraded, err := cartmeta.EncodeLine(rec)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart line")
		}
		if degraded && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"cart_index": i,
				"item_ref":   rec.Reference(),
			})
			s.logg.Warn(logCtx, "checkout.metadata.line_degraded")
		}
		metadata[cartmeta.Key(i)] = encoded
	}

	amountMinor := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	intent, err := s.stripe.CreatePaymentIntent(ctx, amountMinor, Currency, metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if s.logg != nil {
		logCtx := s.logg.WithPaymentIntentID(ctx, intent.ID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"amount_minor": amountMinor,
			"item_count":   len(req.CartItems),
		})
		s.logg.Info(logCtx, "checkout.payment_intent.created")
	}

	return &CreatePaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       amountMinor,
	}, nil
}

func validateCart(items []CartItemRequest) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	details := map[string]string{}
	for i, item := range items {
		field := func(name string) string {
			return fmt.Sprintf("cartItems[%d].%s", i, name)
		}
		if item.Quantity < 1 {
			details[field("quantity")] = "must be at least 1"
		}
		if isExperience(item) {
			continue
		}
		if strings.TrimSpace(item.Title) == "" {
			details[field("title")] = "is required"
		}
		if item.UnitPrice < 0 {
			details[field("unitPrice")] = "must not be negative"
		}
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart").WithDetails(details)
	}
	return nil
}

func isExperience(item CartItemRequest) bool {
	return strings.TrimSpace(item.ExperienceSlug) != ""
}

func buildLineRecord(item CartItemRequest) (cartmeta.LineRecord, decimal.Decimal) {
	qty := decimal.NewFromInt(int64(item.Quantity))

	if isExperience(item) {
		// The quoted experience price already folds in all selected addons;
		// only the grand total is recomputed here.
		lineTotal := decimal.NewFromFloat(item.Price).Mul(qty)
		lt, _ := lineTotal.Float64()

		return cartmeta.LineRecord{
			Type:                 cartmeta.TypeExperience,
			ExperienceSlug:       item.ExperienceSlug,
			ExperienceTitle:      item.ExperienceTitle,
			Location:             locationName(item),
			Addons:               standardAddonNames(item.StoredAddons),
			VoucherType:          voucherTypeName(item),
			VoucherRecipientName: item.VoucherRecipientName,
			SelectedDate:         item.SelectedDate,
			ImageURL:             item.ImageURL,
			Quantity:             item.Quantity,
			UnitPrice:            item.Price,
			TotalPrice:           lt,
		}, lineTotal
	}

	lineTotal := decimal.NewFromFloat(item.UnitPrice).Mul(qty)
	lt, _ := lineTotal.Float64()

	return cartmeta.LineRecord{
		Type:         cartmeta.TypePhysical,
		ProductID:    item.ID,
		ProductTitle: item.Title,
		Variant:      flattenVariant(item.SelectedVariant),
		SKU:          item.SKU,
		ImageURL:     item.ImageURL,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		TotalPrice:   lt,
	}, lineTotal
}

// flattenVariant renders selected options as "key: value, key: value" with
// stable ordering.
func flattenVariant(variant map[string]string) string {
	if len(variant) == 0 {
		return ""
	}
	keys := make([]string, 0, len(variant))
	for k := range variant {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, variant[k]))
	}
	return strings.Join(parts, ", ")
}

func standardAddonNames(addons []CartAddon) []string {
	var names []string
	for _, addon := range addons {
		if addon.Kind != string(enums.AddonKindStandard) {
			continue
		}
		if name := strings.TrimSpace(addon.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func locationName(item CartItemRequest) string {
	if name := strings.TrimSpace(item.StoredLocationName); name != "" {
		return name
	}
	for _, addon := range item.StoredAddons {
		if addon.Kind == string(enums.AddonKindLocation) {
			if name := strings.TrimSpace(addon.Name); name != "" {
				return name
			}
		}
	}
	return defaultLocationName
}

func voucherTypeName(item CartItemRequest) string {
	if name := strings.TrimSpace(item.StoredVoucherName); name != "" {
		return name
	}
	for _, addon := range item.StoredAddons {
		if addon.Kind == string(enums.AddonKindVoucher) {
			if name := strings.TrimSpace(addon.Name); name != "" {
				return name
			}
		}
	}
	return defaultVoucherType
}
