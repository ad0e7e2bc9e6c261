package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"courseshop/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCouponCode is the lookup key for a user-supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Discount struct {
	CouponID string
	Amount   decimal.Decimal
}

// CouponEvaluator checks a coupon snapshot against a cart subtotal. It has no side effects.
type CouponEvaluator struct {
	Now func() time.Time
}

func (e CouponEvaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Evaluate returns the discount the coupon grants on subtotal, or ok=false
// when the coupon is missing, inactive, expired or used up.
func (e CouponEvaluator) Evaluate(c *domain.Coupon, subtotal decimal.Decimal) (Discount, bool) {
	if c == nil || !c.Active {
		return Discount{}, false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(e.now()) {
		return Discount{}, false
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return Discount{}, false
	}

	var amount decimal.Decimal
	switch {
	case c.Percent.Valid:
		amount = subtotal.Mul(c.Percent.Decimal).Div(hundred).Round(2)
	case c.Amount.Valid:
		amount = c.Amount.Decimal
	default:
		return Discount{}, false
	}
	return Discount{CouponID: c.ID, Amount: amount}, true
}

// ApplyDiscount clamps the discounted total at zero.
func ApplyDiscount(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
