package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGuard(t *testing.T) {
	app, db := newTestApp(t)
	logs := observeLogs(t)

	resp, body := do(t, app, http.MethodGet, "/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", decode[envelope](t, body).Error.Type)

	userSID := session(t, db, "u-alice")
	resp, body = do(t, app, http.MethodGet, "/admin/orders", userSID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode[envelope](t, body).Error.Type)

	resp, _ = do(t, app, http.MethodPatch, "/admin/orders", userSID, map[string]string{"orderId": "x", "status": "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminSID := session(t, db, "u-admin")
	resp, body = do(t, app, http.MethodGet, "/admin/orders", adminSID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Empty(t, decode[[]orderJSON](t, body))

	denied := logs.FilterMessage("access.denied.admin").All()
	require.Len(t, denied, 3)
	assert.Equal(t, "u-alice", denied[1].ContextMap()["user_id"])
}

func TestAdminListFilter(t *testing.T) {
	app, db := newTestApp(t)
	alice := session(t, db, "u-alice")
	adminSID := session(t, db, "u-admin")

	resp, _ := do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"k8s-ops"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/orders", alice, map[string]any{"itemIds": []string{"go-basics"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, body := do(t, app, http.MethodGet, "/admin/orders?status=pending", adminSID, nil)
	pending := decode[[]orderJSON](t, body)
	require.Len(t, pending, 1)
	assert.Equal(t, "k8s-ops", pending[0].ItemID)

	_, body = do(t, app, http.MethodGet, "/admin/orders", adminSID, nil)
	assert.Len(t, decode[[]orderJSON](t, body), 2)

	resp, body = do(t, app, http.MethodGet, "/admin/orders?status=SHIPPED", adminSID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[envelope](t, body).Error.Type)
}
