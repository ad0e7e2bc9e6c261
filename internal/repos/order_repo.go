package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"courseshop/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, total, status, coupon_id, payment_evidence_url, created_at, updated_at`

// InsertOrder writes the order header; lines go through InsertOrderLine.
func (r *OrderRepo) InsertOrder(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, user_id, total, status, coupon_id, payment_evidence_url, created_at, updated_at)
	  VALUES
	    (?,  ?,       ?,     ?,      ?,         ?,                    ?,          ?)
	`, o.ID, o.UserID, o.Total, string(o.Status), o.CouponID, o.PaymentEvidenceURL, o.CreatedAt.UTC(), o.UpdatedAt.UTC())
	return err
}

func (r *OrderRepo) InsertOrderLine(ctx context.Context, l *domain.OrderLine) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_lines(id, order_id, course_id, price)
	  VALUES(?, ?, ?, ?)
	`, l.ID, l.OrderID, l.CourseID, l.Price)
	return err
}

func (r *OrderRepo) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "order")
	}
	orders := []domain.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// UpdateOrderStatus is a compare-and-set on the persisted status.
func (r *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	query, args, err := sqlx.In(`
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?)
	`, string(to), time.Now().UTC(), id, statusStrings(from))
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *OrderRepo) AttachPaymentEvidence(ctx context.Context, orderID, userID, url string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_evidence_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`, string(domain.StatusPendingReview), url, time.Now().UTC(), orderID, userID, string(domain.StatusPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *OrderRepo) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID); err != nil {
		return nil, err
	}
	return out, r.attachLines(ctx, out)
}

// ListOrders returns the latest orders; an empty status matches all.
func (r *OrderRepo) ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, string(status), string(status), limit); err != nil {
		return nil, err
	}
	return out, r.attachLines(ctx, out)
}

func (r *OrderRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	idx := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
	}
	query, args, err := sqlx.In(`
		SELECT id, order_id, course_id, price
		FROM order_lines
		WHERE order_id IN (?)
		ORDER BY rowid
	`, ids)
	if err != nil {
		return err
	}
	var lines []domain.OrderLine
	if err := sqlx.SelectContext(ctx, r.db, &lines, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, l := range lines {
		i := idx[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return nil
}

func statusStrings(in []domain.OrderStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
