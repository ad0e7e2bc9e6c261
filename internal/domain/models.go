package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog item. A NULL price means the course is free.
type Course struct {
	ID        string              `db:"id" json:"id"`
	Title     string              `db:"title" json:"title"`
	Price     decimal.NullDecimal `db:"price" json:"price"`
	Published bool                `db:"published" json:"published"`
	CreatedAt string              `db:"created_at" json:"createdAt"`
}

// EffectivePrice returns the price charged for the course today.
func (c Course) EffectivePrice() decimal.Decimal {
	if !c.Price.Valid {
		return decimal.Zero
	}
	return c.Price.Decimal
}

// Coupon is a discount code. Exactly one of Percent and Amount is set.
type Coupon struct {
	ID          string              `db:"id" json:"id"`
	Code        string              `db:"code" json:"code"`
	Percent     decimal.NullDecimal `db:"discount_percent" json:"discountPercent"`
	Amount      decimal.NullDecimal `db:"discount_amount" json:"discountAmount"`
	MaxUses     *int                `db:"max_uses" json:"maxUses,omitempty"`
	CurrentUses int                 `db:"current_uses" json:"currentUses"`
	Active      bool                `db:"active" json:"active"`
	ExpiresAt   *time.Time          `db:"expires_at" json:"expiresAt,omitempty"`
}

type Order struct {
	ID                 string          `db:"id" json:"id"`
	UserID             string          `db:"user_id" json:"userId"`
	Total              decimal.Decimal `db:"total" json:"total"`
	Status             OrderStatus     `db:"status" json:"status"`
	CouponID           *string         `db:"coupon_id" json:"couponId,omitempty"`
	PaymentEvidenceURL *string         `db:"payment_evidence_url" json:"paymentEvidenceUrl,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
	Lines              []OrderLine     `db:"-" json:"lines"`
}

// ItemID is the read-time projection of the first line's course, for
// clients that predate multi-item orders.
func (o Order) ItemID() string {
	if len(o.Lines) == 0 {
		return ""
	}
	return o.Lines[0].CourseID
}

// CourseIDs lists the courses referenced by the order's lines.
func (o Order) CourseIDs() []string {
	out := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, l.CourseID)
	}
	return out
}

type OrderLine struct {
	ID       string          `db:"id" json:"id"`
	OrderID  string          `db:"order_id" json:"orderId"`
	CourseID string          `db:"course_id" json:"courseId"`
	Price    decimal.Decimal `db:"price" json:"price"`
}

// Entitlement grants a user access to a course. Unique per (UserID, CourseID).
type Entitlement struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	CourseID  string    `db:"course_id" json:"courseId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
