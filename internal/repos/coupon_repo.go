package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"courseshop/internal/domain"
	"courseshop/internal/services"
)

type CouponRepo struct{ db sqlx.ExtContext }

func NewCouponRepo(db sqlx.ExtContext) *CouponRepo { return &CouponRepo{db: db} }

const couponCols = `id, code, discount_percent, discount_amount, max_uses, current_uses, active, expires_at`

func (r *CouponRepo) CouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+couponCols+` FROM coupons WHERE code = ?`, services.NormalizeCouponCode(code))
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	return &c, nil
}

func (r *CouponRepo) CouponByID(ctx context.Context, id string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+couponCols+` FROM coupons WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	return &c, nil
}

// RedeemCoupon spends one use if the cap allows it. The check and the
// increment are a single statement, so concurrent checkouts cannot oversell.
func (r *CouponRepo) RedeemCoupon(ctx context.Context, couponID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET current_uses = current_uses + 1
		WHERE id = ? AND (max_uses IS NULL OR current_uses < max_uses)
	`, couponID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type NewCoupon struct {
	Code      string
	Percent   *decimal.Decimal
	Amount    *decimal.Decimal
	MaxUses   *int
	ExpiresAt *time.Time
	Inactive  bool
}

// Validate enforces the catalog-admin rules: exactly one of percent or
// amount, percent within (0,100], positive amount and cap.
func (n NewCoupon) Validate() error {
	if services.NormalizeCouponCode(n.Code) == "" {
		return fmt.Errorf("%w: coupon code is required", services.ErrValidation)
	}
	if (n.Percent == nil) == (n.Amount == nil) {
		return fmt.Errorf("%w: exactly one of percent or amount is required", services.ErrValidation)
	}
	if n.Percent != nil && (!n.Percent.IsPositive() || n.Percent.GreaterThan(decimal.NewFromInt(100))) {
		return fmt.Errorf("%w: percent must be in (0, 100]", services.ErrValidation)
	}
	if n.Amount != nil && !n.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", services.ErrValidation)
	}
	if n.MaxUses != nil && *n.MaxUses <= 0 {
		return fmt.Errorf("%w: max uses must be positive", services.ErrValidation)
	}
	return nil
}

func (r *CouponRepo) CreateCoupon(ctx context.Context, in NewCoupon) (*domain.Coupon, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := domain.Coupon{
		ID:        uuid.NewString(),
		Code:      services.NormalizeCouponCode(in.Code),
		MaxUses:   in.MaxUses,
		Active:    !in.Inactive,
		ExpiresAt: in.ExpiresAt,
	}
	if in.Percent != nil {
		c.Percent = decimal.NewNullDecimal(*in.Percent)
	}
	if in.Amount != nil {
		c.Amount = decimal.NewNullDecimal(*in.Amount)
	}
	var expires any
	if c.ExpiresAt != nil {
		expires = c.ExpiresAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons(id, code, discount_percent, discount_amount, max_uses, current_uses, active, expires_at, created_at)
		VALUES(?, ?, ?, ?, ?, 0, ?, ?, CURRENT_TIMESTAMP)
	`, c.ID, c.Code, c.Percent, c.Amount, c.MaxUses, c.Active, expires)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: coupon code %s already exists", services.ErrConflict, c.Code)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
