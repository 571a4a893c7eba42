package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/driftkings-bg/driftkings-backend/pkg/config"
	"github.com/driftkings-bg/driftkings-backend/pkg/db"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
	"github.com/driftkings-bg/driftkings-backend/pkg/enums"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
	"github.com/driftkings-bg/driftkings-backend/pkg/pagination"
)

const orderItemUniqueConstraint = "uq_vouchers_order_item"

type documentRenderer interface {
	Render(voucher *models.Voucher) ([]byte, error)
}

// Service manages the voucher lifecycle: creation after date confirmation,
// owner-gated PDF download, single-use redemption, and public verification.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	GenerateForOrderItem(ctx context.Context, item *models.OrderItem, userID uuid.UUID, confirmed time.Time) (uuid.UUID, error)
	Download(ctx context.Context, userID, voucherID uuid.UUID) (string, []byte, error)
	Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error)
	Verify(ctx context.Context, voucherID uuid.UUID) (*VerifyResponse, error)
	List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*VoucherList, error)
}

type service struct {
	repo     Repository
	renderer documentRenderer
	cfg      config.VoucherConfig
	logg     *logger.Logger
}

// NewService builds the voucher lifecycle service.
func NewService(repo Repository, renderer documentRenderer, cfg config.VoucherConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vouchers repository required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("document renderer required")
	}
	return &service{repo: repo, renderer: renderer, cfg: cfg, logg: logg}, nil
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	details := map[string]string{}
	orderItemID, err := uuid.Parse(strings.TrimSpace(req.OrderItemID))
	if err != nil {
		details["orderItemId"] = "must be a valid id"
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		details["userId"] = "must be a valid id"
	}
	if strings.TrimSpace(req.ProductSlug) == "" {
		details["productSlug"] = "is required"
	}
	if req.SelectedDate.IsZero() {
		details["selectedDate"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid voucher request").WithDetails(details)
	}

	var location *string
	if l := strings.TrimSpace(req.Location); l != "" {
		location = &l
	}

	voucher, err := s.createIdempotent(ctx, &models.Voucher{
		ID:            uuid.New(),
		UserID:        userID,
		OrderItemID:   orderItemID,
		ProductSlug:   strings.TrimSpace(req.ProductSlug),
		RecipientName: strings.TrimSpace(req.VoucherRecipientName),
		Location:      location,
		Addons:        req.Addons,
		ServiceDate:   req.SelectedDate,
		ExpiresAt:     s.expiry(req.SelectedDate),
		Status:        enums.VoucherStatusActive,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResponse{Success: true, VoucherID: voucher.ID}, nil
}

// GenerateForOrderItem issues the voucher for a confirmed experience line.
// Field defaults mirror the order snapshot so the document can be rendered
// without another lookup.
func (s *service) GenerateForOrderItem(ctx context.Context, item *models.OrderItem, userID uuid.UUID, confirmed time.Time) (uuid.UUID, error) {
	if item == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order item required")
	}
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if confirmed.IsZero() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "confirmed date required")
	}

	recipient := ""
	if item.VoucherRecipient != nil {
		recipient = *item.VoucherRecipient
	}

	voucher, err := s.createIdempotent(ctx, &models.Voucher{
		ID:            uuid.New(),
		UserID:        userID,
		OrderItemID:   item.ID,
		ProductSlug:   item.ProductRef,
		RecipientName: recipient,
		Location:      item.Location,
		Addons:        item.Addons,
		ServiceDate:   confirmed,
		ExpiresAt:     s.expiry(confirmed),
		Status:        enums.VoucherStatusActive,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return voucher.ID, nil
}

func (s *service) Download(ctx context.Context, userID, voucherID uuid.UUID) (string, []byte, error) {
	if userID == uuid.Nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	voucher, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	// Ownership gates all document work; a mismatched caller gets a refusal
	// before any rendering happens.
	if voucher.UserID != userID {
		return "", nil, pkgerrors.New(pkgerrors.CodeForbidden, "voucher does not belong to user")
	}

	document, err := s.renderer.Render(voucher)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render voucher")
	}

	if s.logg != nil {
		logCtx := s.logg.WithVoucherID(ctx, voucher.ID.String())
		s.logg.Info(logCtx, "vouchers.download.rendered")
	}

	return DownloadFilename(voucher.ID), document, nil
}

func (s *service) Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error) {
	voucherID, err := uuid.Parse(strings.TrimSpace(req.VoucherID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucherId must be a valid id")
	}

	voucher, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	now := time.Now().UTC()
	if voucher.Status == enums.VoucherStatusRedeemed {
		return &RedeemResult{Success: false, Error: "voucher already redeemed"}, nil
	}
	if now.After(voucher.ExpiresAt) {
		return &RedeemResult{Success: false, Error: "voucher expired"}, nil
	}

	redeemed, err := s.repo.MarkRedeemed(ctx, voucherID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem voucher")
	}
	if !redeemed {
		// Lost a concurrent redemption race after the read above.
		return &RedeemResult{Success: false, Error: "voucher already redeemed"}, nil
	}

	if s.logg != nil {
		logCtx := s.logg.WithVoucherID(ctx, voucherID.String())
		s.logg.Info(logCtx, "vouchers.redeemed")
	}

	return &RedeemResult{Success: true, Message: "voucher redeemed"}, nil
}

func (s *service) Verify(ctx context.Context, voucherID uuid.UUID) (*VerifyResponse, error) {
	voucher, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	return &VerifyResponse{
		VoucherID:   voucher.ID,
		ProductSlug: voucher.ProductSlug,
		Status:      voucher.Status,
		ServiceDate: voucher.ServiceDate,
		ExpiresAt:   voucher.ExpiresAt,
		RedeemedAt:  voucher.RedeemedAt,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int, cursor string) (*VoucherList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	vouchers, nextCursor, err := s.repo.ListByUser(ctx, userID, pagination.Params{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vouchers")
	}

	out := make([]VoucherDTO, 0, len(vouchers))
	for i := range vouchers {
		out = append(out, fromModel(&vouchers[i]))
	}
	return &VoucherList{Vouchers: out, NextCursor: nextCursor}, nil
}

// createIdempotent inserts the voucher, collapsing a duplicate trigger for
// the same order item into the existing record.
func (s *service) createIdempotent(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	existing, err := s.repo.FindByOrderItemID(ctx, voucher.OrderItemID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup voucher")
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if db.IsUniqueViolation(err, orderItemUniqueConstraint) {
			winner, findErr := s.repo.FindByOrderItemID(ctx, voucher.OrderItemID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup voucher after duplicate insert")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create voucher")
	}
	return voucher, nil
}

func (s *service) expiry(serviceDate time.Time) time.Time {
	months := s.cfg.ExpiryMonths
	if months <= 0 {
		months = 12
	}
	return serviceDate.AddDate(0, months, 0)
}
