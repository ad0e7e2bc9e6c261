package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"courseshop/internal/domain"
	"courseshop/internal/memstore"
	"courseshop/internal/repos"
	"courseshop/internal/services"
)

// fixture is one gateway backend plus the seeding and inspection hooks the
// scenario tests need.
type fixture struct {
	gw           services.Gateway
	addCourse    func(id, price string)
	addCoupon    func(c domain.Coupon)
	couponUses   func(id string) int
	orderCount   func() int
	entitlements func(userID, courseID string) int
}

type backend struct {
	name string
	open func(t *testing.T) *fixture
}

var backends = []backend{
	{"memstore", openMem},
	{"sqlite", openSQLite},
}

// forEachBackend runs fn once per gateway implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func coursePrice(price string) decimal.NullDecimal {
	if price == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(price))
}

func openMem(t *testing.T) *fixture {
	s := memstore.New()
	return &fixture{
		gw: s,
		addCourse: func(id, price string) {
			s.PutCourse(domain.Course{ID: id, Title: id, Price: coursePrice(price), Published: true})
		},
		addCoupon: s.PutCoupon,
		couponUses: func(id string) int {
			c, ok := s.Coupon(id)
			require.True(t, ok, "coupon %s", id)
			return c.CurrentUses
		},
		orderCount:   s.OrderCount,
		entitlements: s.EntitlementCount,
	}
}

func openSQLite(t *testing.T) *fixture {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	return &fixture{
		gw: repos.NewStore(db),
		addCourse: func(id, price string) {
			var p *decimal.Decimal
			if price != "" {
				d := decimal.RequireFromString(price)
				p = &d
			}
			require.NoError(t, repos.NewCourseRepo(db).CreateCourse(ctx, id, id, p, true))
		},
		addCoupon: func(c domain.Coupon) { insertCoupon(t, db, c) },
		couponUses: func(id string) int {
			c, err := repos.NewCouponRepo(db).CouponByID(ctx, id)
			require.NoError(t, err)
			return c.CurrentUses
		},
		orderCount: func() int {
			var n int
			require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
			return n
		},
		entitlements: func(userID, courseID string) int {
			n, err := repos.NewEntitlementRepo(db).CountEntitlements(ctx, userID, courseID)
			require.NoError(t, err)
			return n
		},
	}
}

// insertCoupon writes a coupon row as-is, including states CreateCoupon
// would refuse (already exhausted, expired).
func insertCoupon(t *testing.T, db *sqlx.DB, c domain.Coupon) {
	t.Helper()
	var expires any
	if c.ExpiresAt != nil {
		expires = c.ExpiresAt.UTC()
	}
	_, err := db.Exec(`
		INSERT INTO coupons(id, code, discount_percent, discount_amount, max_uses, current_uses, active, expires_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, services.NormalizeCouponCode(c.Code), c.Percent, c.Amount, c.MaxUses, c.CurrentUses, c.Active, expires)
	require.NoError(t, err)
}

func percentOff(id, code, p string) domain.Coupon {
	return domain.Coupon{ID: id, Code: code, Percent: decimal.NewNullDecimal(dec(p)), Active: true}
}

func amountOff(id, code, a string) domain.Coupon {
	return domain.Coupon{ID: id, Code: code, Amount: decimal.NewNullDecimal(dec(a)), Active: true}
}

var (
	alice = &domain.User{ID: "u-alice", Email: "alice@courseshop.test", Role: domain.RoleUser}
	bob   = &domain.User{ID: "u-bob", Email: "bob@courseshop.test", Role: domain.RoleUser}
	admin = &domain.User{ID: "u-admin", Email: "admin@courseshop.test", Role: domain.RoleAdmin}
)

func hourFromNow(h int) *time.Time {
	t := time.Now().Add(time.Duration(h) * time.Hour)
	return &t
}
