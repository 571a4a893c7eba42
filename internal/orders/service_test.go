package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	byPaymentIntent map[string]*models.Order
	createErr       error
	created         []*models.Order
	confirmed       map[uuid.UUID]time.Time

	// missFirstFind makes the initial existence check report not-found,
	// simulating a concurrent delivery inserting between check and insert.
	missFirstFind bool
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		byPaymentIntent: map[string]*models.Order{},
		confirmed:       map[uuid.UUID]time.Time{},
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byPaymentIntent[order.PaymentIntentID]; exists {
		return errors.New(`duplicate key value violates unique constraint "uq_orders_payment_intent"`)
	}
	s.byPaymentIntent[order.PaymentIntentID] = order
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	for _, order := range s.byPaymentIntent {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	if s.missFirstFind {
		s.missFirstFind = false
		return nil, gorm.ErrRecordNotFound
	}
	if order, ok := s.byPaymentIntent[paymentIntentID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	for _, order := range s.byPaymentIntent {
		if order.ID != orderID {
			continue
		}
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				return &order.Items[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	var out []models.Order
	for _, order := range s.byPaymentIntent {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, "", nil
}

func (s *stubOrdersRepo) UpdateItemConfirmedDate(ctx context.Context, itemID uuid.UUID, confirmed time.Time) error {
	s.confirmed[itemID] = confirmed
	return nil
}

type stubVoucherGenerator struct {
	calls int
	err   error
}

func (s *stubVoucherGenerator) GenerateForOrderItem(ctx context.Context, item *models.OrderItem, userID uuid.UUID, confirmed time.Time) (uuid.UUID, error) {
	s.calls++
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return uuid.New(), nil
}

func materializeInput(userID uuid.UUID, paymentIntentID string) MaterializeOrderInput {
	return MaterializeOrderInput{
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		TotalPrice:      decimal.NewFromFloat(299.00),
		Email:           "buyer@example.com",
		FullName:        "Ivan Petrov",
		Lines: []MaterializeOrderLine{
			{
				ItemType:   enums.ItemTypeExperience,
				ProductRef: "drift-taxi",
				Title:      "Drift Taxi Ride",
				Quantity:   1,
				UnitPrice:  decimal.NewFromFloat(299.00),
				TotalPrice: decimal.NewFromFloat(299.00),
			},
		},
	}
}

func TestMaterializeCreatesOnceAndReturnsExisting(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	userID := uuid.New()
	first, created, err := svc.Materialize(context.Background(), materializeInput(userID, "pi_once"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !created {
		t.Fatalf("expected first delivery to create the order")
	}

	second, created, err := svc.Materialize(context.Background(), materializeInput(userID, "pi_once"))
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate delivery to be a no-op")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same order id for duplicate delivery, got %s vs %s", second.ID, first.ID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one created order, got %d", len(repo.created))
	}
}

func TestMaterializeRecoversFromInsertRace(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	// The winning delivery inserts after our existence check but before our
	// insert; the unique violation routes us to the existing row.
	winner := buildOrder(materializeInput(uuid.New(), "pi_race"))
	repo.byPaymentIntent["pi_race"] = winner
	repo.missFirstFind = true

	got, created, err := svc.Materialize(context.Background(), materializeInput(winner.UserID, "pi_race"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created {
		t.Fatalf("expected race loser not to report creation")
	}
	if got.ID != winner.ID {
		t.Fatalf("expected winner order, got %s", got.ID)
	}
}

func TestConfirmItemDateTriggersVoucherBestEffort(t *testing.T) {
	repo := newStubOrdersRepo()
	gen := &stubVoucherGenerator{err: errors.New("pdf template unavailable")}
	svc, err := NewService(repo, gen, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	userID := uuid.New()
	order, _, err := svc.Materialize(context.Background(), materializeInput(userID, "pi_confirm"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	itemID := order.Items[0].ID

	confirmed := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	dto, err := svc.ConfirmItemDate(context.Background(), order.ID, itemID, confirmed)
	if err != nil {
		t.Fatalf("confirm date must succeed despite voucher failure: %v", err)
	}
	if dto.ConfirmedDate == nil || !dto.ConfirmedDate.Equal(confirmed) {
		t.Fatalf("expected confirmed date on item, got %v", dto.ConfirmedDate)
	}
	if gen.calls != 1 {
		t.Fatalf("expected voucher generation attempt, got %d", gen.calls)
	}
	if _, ok := repo.confirmed[itemID]; !ok {
		t.Fatalf("expected confirmed date persisted")
	}
}

func TestConfirmItemDateRejectsMerchandise(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	input := materializeInput(uuid.New(), "pi_merch")
	input.Lines[0].ItemType = enums.ItemTypePhysical
	order, _, err := svc.Materialize(context.Background(), input)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	_, err = svc.ConfirmItemDate(context.Background(), order.ID, order.Items[0].ID, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for merchandise item, got %v", err)
	}
}

func TestGetDetailHidesForeignOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, err := NewService(repo, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	owner := uuid.New()
	order, _, err := svc.Materialize(context.Background(), materializeInput(owner, "pi_owned"))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	_, err = svc.GetDetail(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign caller, got %v", err)
	}

	detail, err := svc.GetDetail(context.Background(), owner, order.ID)
	if err != nil {
		t.Fatalf("owner detail: %v", err)
	}
	if detail.PaymentIntentID != "pi_owned" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}
