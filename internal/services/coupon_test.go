package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courseshop/internal/domain"
	"courseshop/internal/services"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptrInt(n int) *int { return &n }

func percentCoupon(p string) *domain.Coupon {
	return &domain.Coupon{
		ID:      "cp-1",
		Code:    "SAVE",
		Percent: decimal.NewNullDecimal(dec(p)),
		Active:  true,
	}
}

func TestEvaluatePercent(t *testing.T) {
	ev := services.CouponEvaluator{Now: func() time.Time { return fixedNow }}
	d, ok := ev.Evaluate(percentCoupon("10"), dec("1000"))
	require.True(t, ok)
	assert.Equal(t, "cp-1", d.CouponID)
	assert.True(t, d.Amount.Equal(dec("100")), d.Amount.String())
}

func TestEvaluatePercentRoundsToCents(t *testing.T) {
	ev := services.CouponEvaluator{Now: func() time.Time { return fixedNow }}
	d, ok := ev.Evaluate(percentCoupon("15"), dec("19.99"))
	require.True(t, ok)
	assert.True(t, d.Amount.Equal(dec("3")), d.Amount.String())
}

func TestEvaluateFixed(t *testing.T) {
	ev := services.CouponEvaluator{}
	c := &domain.Coupon{ID: "cp-2", Amount: decimal.NewNullDecimal(dec("25")), Active: true}
	d, ok := ev.Evaluate(c, dec("10"))
	require.True(t, ok)
	assert.True(t, d.Amount.Equal(dec("25")))
	assert.True(t, services.ApplyDiscount(dec("10"), d.Amount).IsZero(), "total is clamped at zero")
}

func TestEvaluateRejections(t *testing.T) {
	ev := services.CouponEvaluator{Now: func() time.Time { return fixedNow }}
	past := fixedNow.Add(-time.Minute)
	future := fixedNow.Add(time.Hour)

	cases := map[string]*domain.Coupon{
		"missing":  nil,
		"inactive": {ID: "a", Percent: decimal.NewNullDecimal(dec("10")), Active: false},
		"expired":  {ID: "b", Percent: decimal.NewNullDecimal(dec("10")), Active: true, ExpiresAt: &past},
		"expires now": {ID: "c", Percent: decimal.NewNullDecimal(dec("10")), Active: true,
			ExpiresAt: &fixedNow},
		"used up":  {ID: "d", Percent: decimal.NewNullDecimal(dec("10")), Active: true, MaxUses: ptrInt(1), CurrentUses: 1},
		"no value": {ID: "e", Active: true},
	}
	for name, c := range cases {
		_, ok := ev.Evaluate(c, dec("100"))
		assert.False(t, ok, name)
	}

	ok := func(c *domain.Coupon) bool { _, ok := ev.Evaluate(c, dec("100")); return ok }
	assert.True(t, ok(&domain.Coupon{ID: "f", Percent: decimal.NewNullDecimal(dec("10")), Active: true,
		ExpiresAt: &future, MaxUses: ptrInt(2), CurrentUses: 1}))
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", services.NormalizeCouponCode("  welcome10 "))
}
