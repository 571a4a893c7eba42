package stripewebhook

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/driftkings-bg/driftkings-backend/internal/orders"
	"github.com/driftkings-bg/driftkings-backend/internal/users"
	"github.com/driftkings-bg/driftkings-backend/pkg/cartmeta"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
)

type orderMaterializer interface {
	Materialize(ctx context.Context, input orders.MaterializeOrderInput) (*models.Order, bool, error)
}

type profileUpdater interface {
	UpdateContactProfile(ctx context.Context, id uuid.UUID, profile users.ContactProfile) error
}

type ServiceParams struct {
	Orders orderMaterializer
	Users  profileUpdater
	Logger *logger.Logger
}

// Service turns signature-verified payment events into persisted orders.
type Service struct {
	orders orderMaterializer
	users  profileUpdater
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		orders: params.Orders,
		users:  params.Users,
		logg:   params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.materializeOrder(ctx, &intent)
	default:
		return nil
	}
}

func (s *Service) materializeOrder(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}
	md := intent.Metadata

	rawUserID := md[cartmeta.KeyUserID]
	if rawUserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "userId metadata missing")
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId metadata")
	}

	rawCount := md[cartmeta.KeyItemCount]
	if rawCount == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "itemCount metadata missing")
	}
	itemCount, err := strconv.Atoi(rawCount)
	if err != nil || itemCount < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid itemCount metadata")
	}

	if s.logg != nil {
		ctx = s.logg.WithPaymentIntentID(ctx, intent.ID)
		ctx = s.logg.WithUserID(ctx, userID.String())
	}

	lines, total := s.reconstructLines(ctx, md, itemCount)

	input := orders.MaterializeOrderInput{
		UserID:          userID,
		PaymentIntentID: intent.ID,
		TotalPrice:      total,
		Email:           md[cartmeta.KeyUserEmail],
		FullName:        md[cartmeta.KeyFullName],
		Phone:           md[cartmeta.KeyPhone],
		Address:         md[cartmeta.KeyAddress],
		City:            md[cartmeta.KeyCity],
		PostalCode:      md[cartmeta.KeyPostalCode],
		Country:         md[cartmeta.KeyCountry],
		Lines:           lines,
	}

	order, created, err := s.orders.Materialize(ctx, input)
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   order.ID.String(),
			"created":    created,
			"line_count": len(lines),
		})
		s.logg.Info(logCtx, "webhook.order.materialized")
	}

	// The contact snapshot refresh is an enrichment step; its failure never
	// turns a materialized order into a webhook failure.
	if created && s.users != nil {
		profile := users.ContactProfile{
			FullName:   input.FullName,
			Phone:      input.Phone,
			Address:    input.Address,
			City:       input.City,
			PostalCode: input.PostalCode,
			Country:    input.Country,
		}
		if perr := s.users.UpdateContactProfile(ctx, userID, profile); perr != nil && s.logg != nil {
			s.logg.Error(ctx, "webhook.profile_update_failed", perr)
		}
	}

	return nil
}

// reconstructLines decodes cart_0..cart_{n-1}. A missing or malformed entry
// is skipped so one bad line never drops the whole order.
func (s *Service) reconstructLines(ctx context.Context, md map[string]string, itemCount int) ([]orders.MaterializeOrderLine, decimal.Decimal) {
	lines := make([]orders.MaterializeOrderLine, 0, itemCount)
	total := decimal.Zero

	for i := 0; i < itemCount; i++ {
		raw, ok := md[cartmeta.Key(i)]
		if !ok {
			s.skipLine(ctx, i, "missing")
			continue
		}
		rec, err := cartmeta.DecodeLine(raw)
		if err != nil {
			s.skipLine(ctx, i, err.Error())
			continue
		}

		line := buildOrderLine(rec)
		lines = append(lines, line)
		total = total.Add(line.TotalPrice)
	}

	return lines, total
}

func (s *Service) skipLine(ctx context.Context, index int, reason string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"cart_index": index,
		"reason":     reason,
	})
	s.logg.Warn(logCtx, "webhook.cart_line.skipped")
}

func buildOrderLine(rec cartmeta.LineRecord) orders.MaterializeOrderLine {
	itemType := enums.ItemTypePhysical
	if rec.Type == cartmeta.TypeExperience {
		itemType = enums.ItemTypeExperience
	}

	line := orders.MaterializeOrderLine{
		ItemType:   itemType,
		ProductRef: rec.Reference(),
		Title:      rec.DisplayTitle(),
		Quantity:   rec.EffectiveQuantity(),
		UnitPrice:  decimal.NewFromFloat(rec.EffectiveUnitPrice()),
		TotalPrice: decimal.NewFromFloat(rec.LineTotal()),
		ImageURL:   optional(rec.ImageURL),
		Variant:    optional(rec.Variant),
		SKU:        optional(rec.SKU),
	}

	if itemType == enums.ItemTypeExperience {
		line.Location = optional(rec.Location)
		line.Addons = rec.Addons
		line.VoucherType = optional(rec.VoucherType)
		line.VoucherRecipient = optional(rec.VoucherRecipientName)
		line.SelectedDate = parseDate(rec.SelectedDate)
	}

	return line
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
