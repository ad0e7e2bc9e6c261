package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"courseshop/internal/config"
	applog "courseshop/internal/log"
	"courseshop/internal/metrics"
)

// NewApp wires middleware, services and routes over db. A nil reg gets a
// private registry.
func NewApp(db *sqlx.DB, cfg config.Config, reg *prometheus.Registry) *fiber.App {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	deps := NewDeps(db, cfg, metrics.New(reg), zap.L())

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(LoadUser(deps.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitPerMin,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || strings.HasPrefix(p, "/metrics")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return respondError(c, fiber.ErrTooManyRequests)
		},
	}))

	// ---------- Auth ----------
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return respondError(c, fiber.ErrTooManyRequests)
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/me", RequireUser(), deps.AuthHandler.Me)

	// ---------- Catalog ----------
	app.Get("/courses", deps.CatalogHandler.List)
	app.Get("/courses/:id", deps.CatalogHandler.Detail)

	// ---------- Orders & purchases ----------
	orders := app.Group("/orders", RequireUser())
	orders.Post("/", deps.OrderHandler.Create)
	orders.Get("/", deps.OrderHandler.History)
	orders.Get("/:id", deps.OrderHandler.View)
	orders.Patch("/:id", deps.OrderHandler.SubmitEvidence)
	app.Get("/purchases", RequireUser(), deps.PurchaseHandler.List)

	// ---------- Admin ----------
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/orders", deps.AdminHandler.Orders)
	admin.Patch("/orders", deps.AdminHandler.SetStatus)

	// Health, metrics & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Use(func(c *fiber.Ctx) error {
		return respondError(c, fiber.ErrNotFound)
	})

	return app
}
