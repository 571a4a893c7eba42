package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	stripelib "github.com/stripe/stripe-go/v84"

	"github.com/driftkings-bg/driftkings-backend/pkg/cartmeta"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
)

type stubIntentCreator struct {
	amount   int64
	currency string
	metadata map[string]string
	err      error
}

func (s *stubIntentCreator) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*stripelib.PaymentIntent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.amount = amountMinor
	s.currency = currency
	s.metadata = metadata
	return &stripelib.PaymentIntent{
		ID:           "pi_test_123",
		ClientSecret: "pi_test_123_secret",
	}, nil
}

func buildService(t *testing.T) (Service, *stubIntentCreator) {
	t.Helper()
	creator := &stubIntentCreator{}
	svc, err := NewService(creator, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, creator
}

func TestCreatePaymentIntentChargesServerComputedTotal(t *testing.T) {
	svc, creator := buildService(t)

	resp, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{ID: "cap-black", Title: "Drift Cap", UnitPrice: 10.00, Quantity: 2},
			{ID: "tee-red", Title: "Team Tee", UnitPrice: 15.50, Quantity: 1},
		},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}

	if resp.Amount != 3550 {
		t.Fatalf("expected 3550 minor units, got %d", resp.Amount)
	}
	if creator.amount != 3550 {
		t.Fatalf("expected provider charge of 3550, got %d", creator.amount)
	}
	if creator.currency != Currency {
		t.Fatalf("expected %s settlement, got %s", Currency, creator.currency)
	}
	if resp.ClientSecret == "" {
		t.Fatalf("expected client secret")
	}
}

func TestCreatePaymentIntentIgnoresClientTotalsForMerchandise(t *testing.T) {
	svc, creator := buildService(t)

	// Even if the storefront quoted a different experience-style price, a
	// merchandise line charges unitPrice times quantity.
	_, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{ID: "hoodie", Title: "Hoodie", UnitPrice: 49.90, Price: 1.00, Quantity: 1},
		},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}
	if creator.amount != 4990 {
		t.Fatalf("expected 4990 minor units, got %d", creator.amount)
	}
}

func TestCreatePaymentIntentMetadataRoundTripsExperienceLine(t *testing.T) {
	svc, creator := buildService(t)
	userID := uuid.New()

	_, err := svc.CreatePaymentIntent(context.Background(), userID, "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{
				ID:             "exp-1",
				ExperienceSlug: "drift-taxi",
				ExperienceTitle: "Drift Taxi Ride",
				Price:          299.00,
				Quantity:       1,
				StoredAddons: []CartAddon{
					{ID: "a1", Name: "GoPro Footage", Price: 30, Kind: "standard"},
					{ID: "a2", Name: "Sofia Ring", Price: 0, Kind: "location"},
					{ID: "a3", Name: "Printed", Price: 10, Kind: "voucher"},
				},
				VoucherRecipientName: "Georgi Ivanov",
				SelectedDate:         "2026-10-01T10:00:00Z",
			},
		},
		PersonalInfo: PersonalInfo{
			FullName:   "Ivan Petrov",
			Phone:      "+359888123456",
			City:       "Sofia",
			Country:    "Bulgaria",
		},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}

	md := creator.metadata
	if md[cartmeta.KeyUserID] != userID.String() {
		t.Fatalf("expected userId metadata, got %q", md[cartmeta.KeyUserID])
	}
	if md[cartmeta.KeyItemCount] != "1" {
		t.Fatalf("expected itemCount 1, got %q", md[cartmeta.KeyItemCount])
	}

	rec, err := cartmeta.DecodeLine(md[cartmeta.Key(0)])
	if err != nil {
		t.Fatalf("decode cart_0: %v", err)
	}
	if rec.Type != cartmeta.TypeExperience {
		t.Fatalf("expected experience record, got %s", rec.Type)
	}
	if rec.ExperienceSlug != "drift-taxi" {
		t.Fatalf("expected slug, got %q", rec.ExperienceSlug)
	}
	if rec.Location != "Sofia Ring" {
		t.Fatalf("expected location from addon, got %q", rec.Location)
	}
	if len(rec.Addons) != 1 || rec.Addons[0] != "GoPro Footage" {
		t.Fatalf("expected only standard addon names, got %v", rec.Addons)
	}
	if rec.VoucherType != "Printed" {
		t.Fatalf("expected voucher type from addon, got %q", rec.VoucherType)
	}
	if rec.VoucherRecipientName != "Georgi Ivanov" {
		t.Fatalf("expected recipient, got %q", rec.VoucherRecipientName)
	}
}

func TestCreatePaymentIntentDefaultsLocationAndVoucherType(t *testing.T) {
	svc, creator := buildService(t)

	_, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{ID: "exp-1", ExperienceSlug: "drift-rental", Price: 450, Quantity: 1},
		},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}

	rec, err := cartmeta.DecodeLine(creator.metadata[cartmeta.Key(0)])
	if err != nil {
		t.Fatalf("decode cart_0: %v", err)
	}
	if rec.Location != defaultLocationName {
		t.Fatalf("expected fallback location, got %q", rec.Location)
	}
	if rec.VoucherType != defaultVoucherType {
		t.Fatalf("expected fallback voucher type, got %q", rec.VoucherType)
	}
}

func TestCreatePaymentIntentValidationDetail(t *testing.T) {
	svc, _ := buildService(t)

	_, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{ID: "p1", Title: "", UnitPrice: -1, Quantity: 0},
		},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field detail map, got %T", typed.Details())
	}
	for _, field := range []string{"cartItems[0].title", "cartItems[0].unitPrice", "cartItems[0].quantity"} {
		if _, present := details[field]; !present {
			t.Fatalf("expected detail for %s, got %v", field, details)
		}
	}
}

func TestCreatePaymentIntentRejectsAnonymousCaller(t *testing.T) {
	svc, _ := buildService(t)

	_, err := svc.CreatePaymentIntent(context.Background(), uuid.Nil, "", CreatePaymentIntentRequest{
		CartItems:    []CartItemRequest{{ID: "p1", Title: "Cap", UnitPrice: 10, Quantity: 1}},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreatePaymentIntentOversizedLineDegrades(t *testing.T) {
	svc, creator := buildService(t)

	_, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), "buyer@example.com", CreatePaymentIntentRequest{
		CartItems: []CartItemRequest{
			{
				ID:              "exp-big",
				ExperienceSlug:  "mega-package",
				ExperienceTitle: strings.Repeat("Ultimate Drift Weekend ", 30),
				Price:           999,
				Quantity:        1,
				ImageURL:        "https://cdn.example.com/" + strings.Repeat("x", 300),
			},
		},
		PersonalInfo: PersonalInfo{FullName: "Ivan Petrov"},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}

	value := creator.metadata[cartmeta.Key(0)]
	if len(value) > cartmeta.ValueMaxLen {
		t.Fatalf("metadata value exceeds cap: %d", len(value))
	}
	rec, err := cartmeta.DecodeLine(value)
	if err != nil {
		t.Fatalf("decode degraded line: %v", err)
	}
	if !rec.IsFallback() {
		t.Fatalf("expected fallback record, got %+v", rec)
	}
	if rec.LineTotal() != 999 {
		t.Fatalf("expected fallback total 999, got %v", rec.LineTotal())
	}
}

func TestFlattenVariantStableOrder(t *testing.T) {
	got := flattenVariant(map[string]string{"size": "L", "color": "black"})
	if got != "color: black, size: L" {
		t.Fatalf("unexpected variant string: %q", got)
	}
	if flattenVariant(nil) != "" {
		t.Fatalf("expected empty string for no variant")
	}
}
