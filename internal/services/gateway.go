package services

import (
	"context"

	"courseshop/internal/domain"
)

// Gateway is the storage engine behind the order engine. InTx runs fn in a
// single atomic transaction: a non-nil error from fn rolls back every write.
type Gateway interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside a transaction.
type Tx interface {
	// CoursesByIDs resolves published courses; missing ids are simply absent from the result.
	CoursesByIDs(ctx context.Context, ids []string) ([]domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)

	// CouponByCode looks up an already normalized code, returning ErrNotFound when absent.
	CouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// RedeemCoupon increments current_uses only while under the cap, as one
	// conditional write. It reports false when the cap was already reached.
	RedeemCoupon(ctx context.Context, couponID string) (bool, error)

	InsertOrder(ctx context.Context, o *domain.Order) error
	InsertOrderLine(ctx context.Context, l *domain.OrderLine) error
	// OrderByID returns the order with its lines, or ErrNotFound.
	OrderByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateOrderStatus writes to only if the persisted status is one of from.
	UpdateOrderStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
	// AttachPaymentEvidence moves an owned PENDING order to PENDING_REVIEW.
	AttachPaymentEvidence(ctx context.Context, orderID, userID, url string) (bool, error)
	OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error)

	OwnedCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error)
	// InsertEntitlement returns ErrDuplicate when (user, course) already exists.
	InsertEntitlement(ctx context.Context, e *domain.Entitlement) error
	EntitlementsByUser(ctx context.Context, userID string) ([]domain.Entitlement, error)
}
