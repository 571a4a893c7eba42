package vouchers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/driftkings-bg/driftkings-backend/pkg/db"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	"github.com/driftkings-bg/driftkings-backend/pkg/pagination"
)

func setupVouchersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	vouchers := `
CREATE TABLE IF NOT EXISTS vouchers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  product_slug TEXT NOT NULL,
  recipient_name TEXT NOT NULL,
  location TEXT,
  addons TEXT,
  service_date DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  redeemed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	vouchersUnique := `
CREATE UNIQUE INDEX IF NOT EXISTS uq_vouchers_order_item ON vouchers (order_item_id);`

	require.NoError(t, conn.Exec(vouchers).Error)
	require.NoError(t, conn.Exec(vouchersUnique).Error)
	return conn
}

func seedVoucher(t *testing.T, repo Repository, userID uuid.UUID, createdAt time.Time) *models.Voucher {
	t.Helper()

	now := time.Now().UTC()
	voucher := &models.Voucher{
		ID:            uuid.New(),
		UserID:        userID,
		OrderItemID:   uuid.New(),
		ProductSlug:   "drift-taxi",
		RecipientName: "Ivan Petrov",
		ServiceDate:   now.AddDate(0, 1, 0),
		ExpiresAt:     now.AddDate(1, 0, 0),
		Status:        enums.VoucherStatusActive,
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), voucher))
	return voucher
}

func TestRepositoryEnforcesOneVoucherPerOrderItem(t *testing.T) {
	conn := setupVouchersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	voucher := seedVoucher(t, repo, uuid.New(), time.Now().UTC())

	dup := *voucher
	dup.ID = uuid.New()
	err := repo.Create(ctx, &dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	found, err := repo.FindByOrderItemID(ctx, voucher.OrderItemID)
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, found.ID)
}

func TestRepositoryMarkRedeemedIsSingleUse(t *testing.T) {
	conn := setupVouchersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	voucher := seedVoucher(t, repo, uuid.New(), time.Now().UTC())

	at := time.Now().UTC()
	redeemed, err := repo.MarkRedeemed(ctx, voucher.ID, at)
	require.NoError(t, err)
	assert.True(t, redeemed)

	redeemed, err = repo.MarkRedeemed(ctx, voucher.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, redeemed)

	found, err := repo.FindByID(ctx, voucher.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VoucherStatusRedeemed, found.Status)
	require.NotNil(t, found.RedeemedAt)
	assert.WithinDuration(t, at, *found.RedeemedAt, time.Second)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	conn := setupVouchersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedVoucher(t, repo, userID, base.Add(time.Duration(i)*time.Minute))
	}
	seedVoucher(t, repo, uuid.New(), base)

	page, cursor, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	rest, cursor, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, cursor)

	for _, v := range append(page, rest...) {
		assert.Equal(t, userID, v.UserID)
	}
}
