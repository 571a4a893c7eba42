package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/driftkings-bg/driftkings-backend/pkg/db"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
	"github.com/driftkings-bg/driftkings-backend/pkg/pagination"
)

const paymentIntentUniqueConstraint = "uq_orders_payment_intent"

type voucherGenerator interface {
	GenerateForOrderItem(ctx context.Context, item *models.OrderItem, userID uuid.UUID, confirmed time.Time) (uuid.UUID, error)
}

// Service exposes order materialization, date confirmation and the customer
// read models.
type Service interface {
	Materialize(ctx context.Context, input MaterializeOrderInput) (*models.Order, bool, error)
	ConfirmItemDate(ctx context.Context, orderID, itemID uuid.UUID, confirmed time.Time) (*OrderItemDTO, error)
	List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*OrderList, error)
	GetDetail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	vouchers voucherGenerator
	logg     *logger.Logger
}

// NewService builds the orders service. The voucher generator is optional;
// when absent, date confirmation skips voucher issuance.
func NewService(repo Repository, vouchers voucherGenerator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, vouchers: vouchers, logg: logg}, nil
}

// Materialize creates exactly one order per payment intent id. The bool
// reports whether this call created the row; a duplicate delivery returns the
// existing order untouched.
func (s *service) Materialize(ctx context.Context, input MaterializeOrderInput) (*models.Order, bool, error) {
	if input.UserID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.PaymentIntentID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	existing, err := s.repo.FindByPaymentIntentID(ctx, input.PaymentIntentID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}

	order := buildOrder(input)
	if err := s.repo.Create(ctx, order); err != nil {
		// A concurrent delivery may have won the insert race; the unique
		// constraint makes that visible and the existing row is returned.
		if db.IsUniqueViolation(err, paymentIntentUniqueConstraint) {
			winner, findErr := s.repo.FindByPaymentIntentID(ctx, input.PaymentIntentID)
			if findErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup order after duplicate insert")
			}
			return winner, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	return order, true, nil
}

func (s *service) ConfirmItemDate(ctx context.Context, orderID, itemID uuid.UUID, confirmed time.Time) (*OrderItemDTO, error) {
	if orderID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and item ids required")
	}
	if confirmed.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confirmed date required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	item, err := s.repo.FindItem(ctx, orderID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.ItemType != enums.ItemTypeExperience {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only experience items take a service date")
	}

	if err := s.repo.UpdateItemConfirmedDate(ctx, item.ID, confirmed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm date")
	}
	item.ConfirmedDate = &confirmed

	// Voucher issuance is best-effort; the confirmation already succeeded
	// and the voucher can be regenerated later.
	if s.vouchers != nil {
		if _, verr := s.vouchers.GenerateForOrderItem(ctx, item, order.UserID, confirmed); verr != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id": orderID.String(),
				"item_id":  itemID.String(),
			})
			s.logg.Error(logCtx, "orders.confirm_date.voucher_generation_failed", verr)
		}
	}

	dto := itemFromModel(item)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	orders, nextCursor, err := s.repo.ListByUser(ctx, userID, pagination.Params{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, OrderSummary{
			ID:         order.ID,
			TotalPrice: order.TotalPrice,
			ItemCount:  len(order.Items),
			CreatedAt:  order.CreatedAt,
		})
	}

	return &OrderList{Orders: summaries, NextCursor: nextCursor}, nil
}

func (s *service) GetDetail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Another user's order reads as absent so ids cannot be probed.
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	return fromModel(order), nil
}

func buildOrder(input MaterializeOrderInput) *models.Order {
	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.OrderItem{
			ID:               uuid.New(),
			OrderID:          orderID,
			ItemType:         line.ItemType,
			ProductRef:       line.ProductRef,
			Title:            line.Title,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			TotalPrice:       line.TotalPrice,
			ImageURL:         line.ImageURL,
			Variant:          line.Variant,
			SKU:              line.SKU,
			Location:         line.Location,
			Addons:           line.Addons,
			VoucherType:      line.VoucherType,
			VoucherRecipient: line.VoucherRecipient,
			SelectedDate:     line.SelectedDate,
		})
	}

	return &models.Order{
		ID:              orderID,
		UserID:          input.UserID,
		PaymentIntentID: input.PaymentIntentID,
		TotalPrice:      input.TotalPrice,
		Email:           input.Email,
		FullName:        input.FullName,
		Phone:           input.Phone,
		Address:         input.Address,
		City:            input.City,
		PostalCode:      input.PostalCode,
		Country:         input.Country,
		Items:           items,
	}
}
