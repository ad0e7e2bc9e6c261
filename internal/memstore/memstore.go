// Package memstore is an in-memory services.Gateway. Transactions run one at
// a time against a private copy of the data, which replaces the shared state
// only when the transaction function succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"courseshop/internal/domain"
	"courseshop/internal/services"
)

type data struct {
	courses      map[string]domain.Course
	coupons      map[string]domain.Coupon // by id
	orders       map[string]domain.Order  // lines kept in lines
	lines        map[string][]domain.OrderLine
	entitlements map[string]domain.Entitlement // by user|course
}

func (d *data) clone() *data {
	c := &data{
		courses:      make(map[string]domain.Course, len(d.courses)),
		coupons:      make(map[string]domain.Coupon, len(d.coupons)),
		orders:       make(map[string]domain.Order, len(d.orders)),
		lines:        make(map[string][]domain.OrderLine, len(d.lines)),
		entitlements: make(map[string]domain.Entitlement, len(d.entitlements)),
	}
	for k, v := range d.courses {
		c.courses[k] = v
	}
	for k, v := range d.coupons {
		c.coupons[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.lines {
		c.lines[k] = append([]domain.OrderLine(nil), v...)
	}
	for k, v := range d.entitlements {
		c.entitlements[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *data
}

func New() *Store {
	return &Store{data: (&data{}).clone()}
}

func (s *Store) InTx(ctx context.Context, fn func(tx services.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&tx{d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// PutCourse and PutCoupon stand in for catalog administration.
func (s *Store) PutCourse(c domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.courses[c.ID] = c
}

func (s *Store) PutCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Code = services.NormalizeCouponCode(c.Code)
	s.data.coupons[c.ID] = c
}

func (s *Store) Coupon(id string) (domain.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.coupons[id]
	return c, ok
}

// OrderCount and EntitlementCount let tests check that nothing leaked from a failed transaction.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *Store) EntitlementCount(userID, courseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.data.entitlements {
		if e.UserID == userID && e.CourseID == courseID {
			n++
		}
	}
	return n
}

type tx struct{ d *data }

func entKey(userID, courseID string) string { return userID + "|" + courseID }

func (t *tx) CoursesByIDs(_ context.Context, ids []string) ([]domain.Course, error) {
	var out []domain.Course
	for _, id := range ids {
		if c, ok := t.d.courses[id]; ok && c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *tx) ListCourses(_ context.Context) ([]domain.Course, error) {
	var out []domain.Course
	for _, c := range t.d.courses {
		if c.Published {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (t *tx) CouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	for _, c := range t.d.coupons {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (t *tx) RedeemCoupon(_ context.Context, couponID string) (bool, error) {
	c, ok := t.d.coupons[couponID]
	if !ok {
		return false, nil
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return false, nil
	}
	c.CurrentUses++
	t.d.coupons[couponID] = c
	return true, nil
}

func (t *tx) InsertOrder(_ context.Context, o *domain.Order) error {
	if _, ok := t.d.orders[o.ID]; ok {
		return services.ErrDuplicate
	}
	cp := *o
	cp.Lines = nil
	t.d.orders[o.ID] = cp
	return nil
}

func (t *tx) InsertOrderLine(_ context.Context, l *domain.OrderLine) error {
	if _, ok := t.d.orders[l.OrderID]; !ok {
		return services.ErrNotFound
	}
	for _, existing := range t.d.lines[l.OrderID] {
		if existing.CourseID == l.CourseID {
			return services.ErrDuplicate
		}
	}
	t.d.lines[l.OrderID] = append(t.d.lines[l.OrderID], *l)
	return nil
}

func (t *tx) order(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), t.d.lines[o.ID]...)
	return o
}

func (t *tx) OrderByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := t.d.orders[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	out := t.order(o)
	return &out, nil
}

func (t *tx) UpdateOrderStatus(_ context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	o, ok := t.d.orders[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			o.UpdatedAt = time.Now().UTC()
			t.d.orders[id] = o
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) AttachPaymentEvidence(_ context.Context, orderID, userID, url string) (bool, error) {
	o, ok := t.d.orders[orderID]
	if !ok || o.UserID != userID || o.Status != domain.StatusPending {
		return false, nil
	}
	o.Status = domain.StatusPendingReview
	o.PaymentEvidenceURL = &url
	o.UpdatedAt = time.Now().UTC()
	t.d.orders[orderID] = o
	return true, nil
}

func (t *tx) sorted(keep func(domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range t.d.orders {
		if keep(o) {
			out = append(out, t.order(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (t *tx) OrdersByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return t.sorted(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (t *tx) ListOrders(_ context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	out := t.sorted(func(o domain.Order) bool { return status == "" || o.Status == status })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tx) OwnedCourseIDs(_ context.Context, userID string, courseIDs []string) ([]string, error) {
	var out []string
	for _, id := range courseIDs {
		if _, ok := t.d.entitlements[entKey(userID, id)]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (t *tx) InsertEntitlement(_ context.Context, e *domain.Entitlement) error {
	k := entKey(e.UserID, e.CourseID)
	if _, ok := t.d.entitlements[k]; ok {
		return services.ErrDuplicate
	}
	t.d.entitlements[k] = *e
	return nil
}

func (t *tx) EntitlementsByUser(_ context.Context, userID string) ([]domain.Entitlement, error) {
	var out []domain.Entitlement
	for _, e := range t.d.entitlements {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}
