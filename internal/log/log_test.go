package log_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	applog "courseshop/internal/log"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestRequestFieldsAttached(t *testing.T) {
	logs := observe(t)

	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		applog.Audit(c, "order.create", map[string]any{"order_id": "o-1"})
		applog.Security(c, "access.denied.admin", nil)
		applog.Error(c, "server.error", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 3)

	audit := entries[0].ContextMap()
	assert.Equal(t, "order.create", audit["action"])
	assert.Equal(t, "audit", audit["kind"])
	assert.Equal(t, "u-1", audit["user_id"])
	assert.Equal(t, "/x", audit["path"])
	assert.NotEmpty(t, audit["req_id"])
	assert.Equal(t, map[string]any{"order_id": "o-1"}, audit["fields"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestNilContext(t *testing.T) {
	logs := observe(t)
	applog.Info(nil, "startup", map[string]any{"port": "8080"})
	require.Equal(t, 1, logs.FilterMessage("startup").Len())
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := applog.New(applog.Config{Level: "loud"})
	require.Error(t, err)
}
