package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"courseshop/internal/config"
	"courseshop/internal/http/handlers"
	"courseshop/internal/repos"
)

type envelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type orderJSON struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"userId"`
	ItemID             string  `json:"itemId"`
	Total              string  `json:"total"`
	Status             string  `json:"status"`
	CouponID           *string `json:"couponId"`
	PaymentEvidenceURL *string `json:"paymentEvidenceUrl"`
	Lines              []struct {
		CourseID string `json:"courseId"`
		Price    string `json:"price"`
	} `json:"lines"`
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:           ":memory:",
		Environment:     "test",
		RateLimitPerMin: 1000,
		BodyLimitBytes:  1 << 20,
	}
}

// newTestApp builds the real router over a seeded in-memory database.
func newTestApp(t *testing.T, tweak ...func(*config.Config)) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := testConfig()
	for _, f := range tweak {
		f(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.SeedDemo(db, nil))
	return handlers.NewApp(db, cfg, nil), db
}

// session binds a fresh sid to userID, skipping the login endpoint.
func session(t *testing.T, db *sqlx.DB, userID string) string {
	t.Helper()
	sid := "sid-" + userID
	require.NoError(t, repos.NewUserRepo(db).BindSession(sid, userID))
	return sid
}

func do(t *testing.T, app *fiber.App, method, path, sid string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// observeLogs swaps the global zap logger for an observer until the test ends.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}
