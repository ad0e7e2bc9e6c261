package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"courseshop/internal/domain"
	"courseshop/internal/metrics"
)

// ApprovalService is the reviewer's side of the order lifecycle.
type ApprovalService struct {
	Store   Gateway
	Grants  *EntitlementGranter
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewApprovalService(store Gateway, grants *EntitlementGranter, log *zap.Logger, m *metrics.Metrics) *ApprovalService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalService{Store: store, Grants: grants, Log: log, Metrics: m, Now: time.Now}
}

// SetStatus moves an order to COMPLETED or CANCELLED. Completing grants
// access to every course on the order in the same transaction. Repeating a
// call that already took effect is a no-op. Cancelling leaves the coupon
// use spent.
func (s *ApprovalService) SetStatus(ctx context.Context, actor *domain.User, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if next != domain.StatusCompleted && next != domain.StatusCancelled {
		return nil, fmt.Errorf("%w: reviewers may only complete or cancel", ErrIllegalTransition)
	}

	var (
		out     *domain.Order
		changed bool
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		switch {
		case o.Status == next:
			// already applied; a repeated grant inserts nothing
		case !o.Status.CanTransitionTo(next):
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
		default:
			ok, err := tx.UpdateOrderStatus(ctx, o.ID, []domain.OrderStatus{o.Status}, next)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order status changed concurrently", ErrConflict)
			}
			changed = true
		}
		if next == domain.StatusCompleted {
			if _, err := s.Grants.GrantTx(ctx, tx, o.UserID, o.CourseIDs()); err != nil {
				return err
			}
		}
		out, err = tx.OrderByID(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, storageErr("set order status", err)
	}

	if changed {
		s.Metrics.StatusTransition(string(next))
	}
	s.Log.Info("order status set",
		zap.String("order_id", out.ID),
		zap.String("status", string(out.Status)),
		zap.String("actor_id", actor.ID),
		zap.Bool("changed", changed),
	)
	return out, nil
}

// List returns recent orders for reviewers, optionally filtered by status.
func (s *ApprovalService) List(ctx context.Context, actor *domain.User, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.Order
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListOrders(ctx, status, limit)
		return err
	})
	return out, storageErr("list orders", err)
}
