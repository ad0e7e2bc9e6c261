package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseJSON struct {
	CourseID string `json:"courseId"`
}

func purchases(t *testing.T, body []byte) []string {
	t.Helper()
	var ids []string
	for _, p := range decode[[]purchaseJSON](t, body) {
		ids = append(ids, p.CourseID)
	}
	return ids
}

func TestPaidOrderLifecycle(t *testing.T) {
	app, db := newTestApp(t)
	alice := session(t, db, "u-alice")
	bob := session(t, db, "u-bob")
	adminSID := session(t, db, "u-admin")

	// checkout with a percentage coupon, code is case-insensitive
	resp, body := do(t, app, http.MethodPost, "/orders", alice, map[string]any{
		"itemIds":    []string{"go-concurrency"},
		"couponCode": "welcome10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	o := decode[orderJSON](t, body)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "900.00", o.Total)
	assert.Equal(t, "go-concurrency", o.ItemID)
	require.NotNil(t, o.CouponID)
	assert.Equal(t, "cp-welcome10", *o.CouponID)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "1000.00", o.Lines[0].Price)

	// someone else's order is invisible
	resp, _ = do(t, app, http.MethodGet, "/orders/"+o.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPatch, "/orders/"+o.ID, bob, map[string]string{
		"paymentEvidenceUrl": "https://files.test/bob.png", "status": "PENDING_REVIEW",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// evidence moves it into review
	resp, body = do(t, app, http.MethodPatch, "/orders/"+o.ID, alice, map[string]string{
		"paymentEvidenceUrl": "https://files.test/receipt.png", "status": "PENDING_REVIEW",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	reviewed := decode[orderJSON](t, body)
	assert.Equal(t, "PENDING_REVIEW", reviewed.Status)
	require.NotNil(t, reviewed.PaymentEvidenceURL)

	_, body = do(t, app, http.MethodGet, "/purchases", alice, nil)
	assert.Empty(t, purchases(t, body))

	// approval grants access; repeating it is harmless
	for i := 0; i < 2; i++ {
		resp, body = do(t, app, http.MethodPatch, "/admin/orders", adminSID, map[string]string{
			"orderId": o.ID, "status": "COMPLETED",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Equal(t, "COMPLETED", decode[orderJSON](t, body).Status)
	}
	_, body = do(t, app, http.MethodGet, "/purchases", alice, nil)
	assert.Equal(t, []string{"go-concurrency"}, purchases(t, body))

	// terminal
	resp, body = do(t, app, http.MethodPatch, "/admin/orders", adminSID, map[string]string{
		"orderId": o.ID, "status": "CANCELLED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[envelope](t, body).Error.Type)

	// buying it again has nothing left to purchase
	resp, body = do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"go-concurrency"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[envelope](t, body).Error.Message, "already owned")

	// history and admin view
	_, body = do(t, app, http.MethodGet, "/orders", alice, nil)
	assert.Len(t, decode[[]orderJSON](t, body), 1)
	resp, _ = do(t, app, http.MethodGet, "/orders/"+o.ID, adminSID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFreeOrderCompletesImmediately(t *testing.T) {
	app, db := newTestApp(t)
	alice := session(t, db, "u-alice")

	resp, body := do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"go-basics"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	o := decode[orderJSON](t, body)
	assert.Equal(t, "COMPLETED", o.Status)
	assert.Equal(t, "0.00", o.Total)

	_, body = do(t, app, http.MethodGet, "/purchases", alice, nil)
	assert.Equal(t, []string{"go-basics"}, purchases(t, body))

	resp, body = do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"go-basics"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[envelope](t, body).Error.Type)
}

func TestLastCouponUseGoesToFirstBuyer(t *testing.T) {
	app, db := newTestApp(t)
	alice := session(t, db, "u-alice")
	bob := session(t, db, "u-bob")

	_, body := do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"k8s-ops"}, "couponCode": "LAUNCH"})
	first := decode[orderJSON](t, body)
	assert.Equal(t, "64.50", first.Total)
	require.NotNil(t, first.CouponID)

	_, body = do(t, app, http.MethodPost, "/orders", bob, map[string]any{"itemIds": []string{"k8s-ops"}, "couponCode": "LAUNCH"})
	second := decode[orderJSON](t, body)
	assert.Equal(t, "129.00", second.Total)
	assert.Nil(t, second.CouponID)
}

func TestCheckoutErrors(t *testing.T) {
	app, db := newTestApp(t)
	alice := session(t, db, "u-alice")

	resp, _ := do(t, app, http.MethodPost, "/orders", "", map[string]any{"itemIds": []string{"go-basics"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"go-basics", "no-such-course"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[envelope](t, body).Error.Type)

	resp, _ = do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"draft-course"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[envelope](t, body).Error.Type)

	// nothing was persisted by the failed attempts
	_, body = do(t, app, http.MethodGet, "/orders", alice, nil)
	assert.Empty(t, decode[[]orderJSON](t, body))
	_, body = do(t, app, http.MethodGet, "/purchases", alice, nil)
	assert.Empty(t, purchases(t, body))
}

func TestCatalogRead(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, http.MethodGet, "/courses", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "draft-course")
	assert.Equal(t, 4, strings.Count(string(body), `"id"`))

	_, body = do(t, app, http.MethodGet, "/courses/go-basics", "", nil)
	course := decode[map[string]any](t, body)
	assert.Equal(t, "0.00", course["price"])
	assert.Equal(t, true, course["free"])

	resp, _ = do(t, app, http.MethodGet, "/courses/draft-course", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
