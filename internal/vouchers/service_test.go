package vouchers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/driftkings-bg/driftkings-backend/pkg/config"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/pagination"
)

type stubVoucherRepo struct {
	byID        map[uuid.UUID]*models.Voucher
	byOrderItem map[uuid.UUID]*models.Voucher
	created     []*models.Voucher
	createErr   error
	redeemOK    bool
	redeemedIDs []uuid.UUID
}

func newStubVoucherRepo() *stubVoucherRepo {
	return &stubVoucherRepo{
		byID:        map[uuid.UUID]*models.Voucher{},
		byOrderItem: map[uuid.UUID]*models.Voucher{},
		redeemOK:    true,
	}
}

func (s *stubVoucherRepo) add(v *models.Voucher) {
	s.byID[v.ID] = v
	s.byOrderItem[v.OrderItemID] = v
}

func (s *stubVoucherRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubVoucherRepo) Create(ctx context.Context, voucher *models.Voucher) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, voucher)
	s.add(voucher)
	return nil
}

func (s *stubVoucherRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	if v, ok := s.byID[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVoucherRepo) FindByOrderItemID(ctx context.Context, orderItemID uuid.UUID) (*models.Voucher, error) {
	if v, ok := s.byOrderItem[orderItemID]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVoucherRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Voucher, string, error) {
	var out []models.Voucher
	for _, v := range s.byID {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, "", nil
}

func (s *stubVoucherRepo) MarkRedeemed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if !s.redeemOK {
		return false, nil
	}
	v, ok := s.byID[id]
	if !ok || v.Status != enums.VoucherStatusActive {
		return false, nil
	}
	v.Status = enums.VoucherStatusRedeemed
	v.RedeemedAt = &at
	s.redeemedIDs = append(s.redeemedIDs, id)
	return true, nil
}

type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) Render(voucher *models.Voucher) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7 stub"), nil
}

func voucherTestService(t *testing.T, repo Repository, renderer documentRenderer) Service {
	t.Helper()
	svc, err := NewService(repo, renderer, config.VoucherConfig{ExpiryMonths: 12}, nil)
	require.NoError(t, err)
	return svc
}

func activeVoucher(userID uuid.UUID) *models.Voucher {
	now := time.Now().UTC()
	return &models.Voucher{
		ID:            uuid.New(),
		UserID:        userID,
		OrderItemID:   uuid.New(),
		ProductSlug:   "drift-taxi",
		RecipientName: "Ivan Petrov",
		ServiceDate:   now.AddDate(0, 1, 0),
		ExpiresAt:     now.AddDate(1, 0, 0),
		Status:        enums.VoucherStatusActive,
	}
}

func TestGenerateForOrderItemIssuesVoucher(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	userID := uuid.New()
	recipient := "Maria Dimitrova"
	location := "Sofia Ring"
	confirmed := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	item := &models.OrderItem{
		ID:               uuid.New(),
		ItemType:         enums.ItemTypeExperience,
		ProductRef:       "drift-duo",
		Title:            "Drift Duo",
		Quantity:         1,
		Location:         &location,
		Addons:           []string{"GoPro Footage"},
		VoucherRecipient: &recipient,
	}

	id, err := svc.GenerateForOrderItem(context.Background(), item, userID, confirmed)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	require.Len(t, repo.created, 1)
	v := repo.created[0]
	require.Equal(t, userID, v.UserID)
	require.Equal(t, item.ID, v.OrderItemID)
	require.Equal(t, "drift-duo", v.ProductSlug)
	require.Equal(t, "Maria Dimitrova", v.RecipientName)
	require.Equal(t, confirmed, v.ServiceDate)
	require.Equal(t, confirmed.AddDate(0, 12, 0), v.ExpiresAt)
	require.Equal(t, enums.VoucherStatusActive, v.Status)
}

func TestGenerateForOrderItemIsIdempotent(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	userID := uuid.New()
	item := &models.OrderItem{ID: uuid.New(), ItemType: enums.ItemTypeExperience, ProductRef: "drift-taxi"}
	confirmed := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.GenerateForOrderItem(context.Background(), item, userID, confirmed)
	require.NoError(t, err)

	second, err := svc.GenerateForOrderItem(context.Background(), item, userID, confirmed)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, repo.created, 1)
}

func TestDownloadChecksOwnershipAfterExistence(t *testing.T) {
	repo := newStubVoucherRepo()
	renderer := &stubRenderer{}
	svc := voucherTestService(t, repo, renderer)

	owner := uuid.New()
	voucher := activeVoucher(owner)
	repo.add(voucher)

	// Unknown voucher reads as absent.
	_, _, err := svc.Download(context.Background(), owner, uuid.New())
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// Existing voucher owned by someone else is a refusal, rendered never runs.
	_, _, err = svc.Download(context.Background(), uuid.New(), voucher.ID)
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	require.Zero(t, renderer.calls)

	// The owner gets the document.
	filename, document, err := svc.Download(context.Background(), owner, voucher.ID)
	require.NoError(t, err)
	require.Equal(t, 1, renderer.calls)
	require.True(t, strings.HasPrefix(filename, "voucher-"))
	require.True(t, strings.HasSuffix(filename, ".pdf"))
	require.NotEmpty(t, document)
}

func TestRedeemIsSingleUse(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	voucher := activeVoucher(uuid.New())
	repo.add(voucher)

	result, err := svc.Redeem(context.Background(), RedeemRequest{VoucherID: voucher.ID.String()})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, repo.redeemedIDs, 1)

	result, err = svc.Redeem(context.Background(), RedeemRequest{VoucherID: voucher.ID.String()})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "voucher already redeemed", result.Error)
	require.Len(t, repo.redeemedIDs, 1)
}

func TestRedeemRefusesExpiredVoucher(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	voucher := activeVoucher(uuid.New())
	voucher.ExpiresAt = time.Now().UTC().AddDate(0, 0, -1)
	repo.add(voucher)

	result, err := svc.Redeem(context.Background(), RedeemRequest{VoucherID: voucher.ID.String()})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "voucher expired", result.Error)
	require.Equal(t, enums.VoucherStatusActive, voucher.Status)
}

func TestRedeemLosesConcurrentRace(t *testing.T) {
	repo := newStubVoucherRepo()
	repo.redeemOK = false
	svc := voucherTestService(t, repo, &stubRenderer{})

	voucher := activeVoucher(uuid.New())
	repo.add(voucher)

	result, err := svc.Redeem(context.Background(), RedeemRequest{VoucherID: voucher.ID.String()})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "voucher already redeemed", result.Error)
}

func TestVerifyExposesNoOwnerIdentity(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	voucher := activeVoucher(uuid.New())
	repo.add(voucher)

	resp, err := svc.Verify(context.Background(), voucher.ID)
	require.NoError(t, err)
	require.Equal(t, voucher.ID, resp.VoucherID)
	require.Equal(t, "drift-taxi", resp.ProductSlug)
	require.Equal(t, enums.VoucherStatusActive, resp.Status)
	require.Nil(t, resp.RedeemedAt)
}

func TestGenerateValidatesRequest(t *testing.T) {
	repo := newStubVoucherRepo()
	svc := voucherTestService(t, repo, &stubRenderer{})

	_, err := svc.Generate(context.Background(), GenerateRequest{})
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Empty(t, repo.created)
}
