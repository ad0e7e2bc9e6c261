package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"courseshop/internal/domain"
	"courseshop/internal/metrics"
)

type OrderService struct {
	Store   Gateway
	Coupons CouponEvaluator
	Grants  *EntitlementGranter
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewOrderService(store Gateway, grants *EntitlementGranter, log *zap.Logger, m *metrics.Metrics) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		Store:   store,
		Coupons: CouponEvaluator{Now: time.Now},
		Grants:  grants,
		Log:     log,
		Metrics: m,
		Now:     time.Now,
	}
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create checks out courseIDs for userID in one transaction. Courses the
// user already owns are dropped; an invalid coupon is ignored and the order
// is charged in full. Free orders complete immediately and grant access.
func (s *OrderService) Create(ctx context.Context, userID string, courseIDs []string, couponCode string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	ids := uniqueIDs(courseIDs)
	if len(ids) == 0 {
		s.Metrics.CheckoutRejected("no_items")
		return nil, ErrNoItems
	}
	code := NormalizeCouponCode(couponCode)

	var order *domain.Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		courses, err := tx.CoursesByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(courses) != len(ids) {
			s.Metrics.CheckoutRejected("unknown_course")
			return fmt.Errorf("%w: unknown course in cart", ErrNotFound)
		}
		byID := make(map[string]domain.Course, len(courses))
		for _, c := range courses {
			byID[c.ID] = c
		}

		owned, err := tx.OwnedCourseIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		ownedSet := make(map[string]struct{}, len(owned))
		for _, id := range owned {
			ownedSet[id] = struct{}{}
		}
		var buy []domain.Course
		for _, id := range ids {
			if _, ok := ownedSet[id]; !ok {
				buy = append(buy, byID[id])
			}
		}
		if len(buy) == 0 {
			s.Metrics.CheckoutRejected("nothing_to_purchase")
			return ErrNothingToPurchase
		}

		subtotal := decimal.Zero
		for _, c := range buy {
			subtotal = subtotal.Add(c.EffectivePrice())
		}
		total := subtotal

		var couponID *string
		if code != "" {
			d, applied, err := s.redeem(ctx, tx, code, subtotal)
			if err != nil {
				return err
			}
			if applied {
				total = ApplyDiscount(subtotal, d.Amount)
				couponID = &d.CouponID
			}
		}

		now := s.now()
		o := &domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Total:     total,
			Status:    domain.InitialStatus(total.IsZero()),
			CouponID:  couponID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		for _, c := range buy {
			line := domain.OrderLine{
				ID:       uuid.NewString(),
				OrderID:  o.ID,
				CourseID: c.ID,
				Price:    c.EffectivePrice(),
			}
			if err := tx.InsertOrderLine(ctx, &line); err != nil {
				return err
			}
			o.Lines = append(o.Lines, line)
		}

		if o.Status == domain.StatusCompleted {
			if _, err := s.Grants.GrantTx(ctx, tx, userID, o.CourseIDs()); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, storageErr("create order", err)
	}

	s.Metrics.OrderCreated(string(order.Status))
	s.Log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("status", string(order.Status)),
		zap.Int("lines", len(order.Lines)),
	)
	return order, nil
}

// redeem evaluates the coupon and, when it applies, spends one use with a
// conditional increment. Losing the race for the last use means no discount.
func (s *OrderService) redeem(ctx context.Context, tx Tx, code string, subtotal decimal.Decimal) (Discount, bool, error) {
	c, err := tx.CouponByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		s.Metrics.CouponRedemption("not_applicable")
		return Discount{}, false, nil
	}
	if err != nil {
		return Discount{}, false, err
	}
	d, ok := s.Coupons.Evaluate(c, subtotal)
	if !ok {
		s.Metrics.CouponRedemption("not_applicable")
		return Discount{}, false, nil
	}
	redeemed, err := tx.RedeemCoupon(ctx, c.ID)
	if err != nil {
		return Discount{}, false, err
	}
	if !redeemed {
		s.Metrics.CouponRedemption("exhausted")
		return Discount{}, false, nil
	}
	s.Metrics.CouponRedemption("applied")
	return d, true, nil
}

// SubmitPaymentEvidence records the uploaded proof URL and moves the
// caller's PENDING order to PENDING_REVIEW.
func (s *OrderService) SubmitPaymentEvidence(ctx context.Context, userID, orderID, url string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	var out *domain.Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		if !o.Status.CanTransitionTo(domain.StatusPendingReview) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, domain.StatusPendingReview)
		}
		ok, err := tx.AttachPaymentEvidence(ctx, orderID, userID, url)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order changed concurrently", ErrConflict)
		}
		out, err = tx.OrderByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, storageErr("submit evidence", err)
	}
	s.Metrics.StatusTransition(string(domain.StatusPendingReview))
	return out, nil
}

// Get returns an order visible to the viewer: its owner or an admin.
func (s *OrderService) Get(ctx context.Context, viewer *domain.User, orderID string) (*domain.Order, error) {
	if viewer == nil {
		return nil, ErrUnauthorized
	}
	var out *domain.Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != viewer.ID && !viewer.IsAdmin() {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		out = o
		return nil
	})
	return out, storageErr("get order", err)
}

// History lists the user's orders, newest first.
func (s *OrderService) History(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	var out []domain.Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.OrdersByUser(ctx, userID)
		return err
	})
	return out, storageErr("order history", err)
}
