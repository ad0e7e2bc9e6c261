package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"courseshop/internal/domain"
	applog "courseshop/internal/log"
	"courseshop/internal/services"
	"courseshop/internal/validate"
)

type AdminHandler struct {
	Approvals *services.ApprovalService
}

type setStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// GET /admin/orders?status=&limit=
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	var status domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s, ok := domain.ParseOrderStatus(raw)
		if !ok {
			return badRequest(c, "status", "unknown status")
		}
		status = s
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	orders, err := h.Approvals.List(c.UserContext(), currentUser(c), status, limit)
	if err != nil {
		return fail(c, "admin.orders.list.fail", err, nil)
	}
	return c.JSON(toOrderViews(orders))
}

// PATCH /admin/orders
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	var req setStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	id, ok := validate.ID(req.OrderID)
	if !ok {
		return badRequest(c, "orderId", "orderId is required")
	}
	next, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		return badRequest(c, "status", "status must be COMPLETED or CANCELLED")
	}

	o, err := h.Approvals.SetStatus(c.UserContext(), currentUser(c), id, next)
	if err != nil {
		return fail(c, "admin.orders.status.fail", err, map[string]any{"order_id": id, "status": req.Status})
	}
	applog.Audit(c, "admin.orders.status", map[string]any{"order_id": o.ID, "status": string(o.Status)})
	return c.JSON(toOrderView(o))
}
