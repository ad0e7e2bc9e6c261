package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"courseshop/internal/domain"
	applog "courseshop/internal/log"
	"courseshop/internal/services"
	"courseshop/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type createOrderRequest struct {
	ItemIDs    []string `json:"itemIds"`
	CouponCode string   `json:"couponCode"`
}

type evidenceRequest struct {
	PaymentEvidenceURL string `json:"paymentEvidenceUrl"`
	Status             string `json:"status"`
}

type orderLineView struct {
	CourseID string `json:"courseId"`
	Price    string `json:"price"`
}

type orderView struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	ItemID             string          `json:"itemId"`
	Total              string          `json:"total"`
	Status             string          `json:"status"`
	CouponID           *string         `json:"couponId,omitempty"`
	PaymentEvidenceURL *string         `json:"paymentEvidenceUrl,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Lines              []orderLineView `json:"lines"`
}

func toOrderView(o *domain.Order) orderView {
	v := orderView{
		ID:                 o.ID,
		UserID:             o.UserID,
		ItemID:             o.ItemID(),
		Total:              o.Total.StringFixed(2),
		Status:             string(o.Status),
		CouponID:           o.CouponID,
		PaymentEvidenceURL: o.PaymentEvidenceURL,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Lines:              make([]orderLineView, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		v.Lines = append(v.Lines, orderLineView{CourseID: l.CourseID, Price: l.Price.StringFixed(2)})
	}
	return v
}

func toOrderViews(in []domain.Order) []orderView {
	out := make([]orderView, 0, len(in))
	for i := range in {
		out = append(out, toOrderView(&in[i]))
	}
	return out
}

// POST /orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	ids, ok := validate.CourseIDs(req.ItemIDs)
	if !ok {
		return badRequest(c, "itemIds", "itemIds must list 1 to 50 course ids")
	}
	// a malformed code can never match; it is ignored like an unknown one
	code, ok := validate.CouponCode(req.CouponCode)
	if !ok {
		code = ""
	}

	o, err := h.Orders.Create(c.UserContext(), u.ID, ids, code)
	if err != nil {
		return fail(c, "order.create.fail", err, map[string]any{"items": len(ids)})
	}
	applog.Audit(c, "order.create", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.StringFixed(2),
		"status":   string(o.Status),
		"coupon":   o.CouponID != nil,
	})
	return c.Status(fiber.StatusCreated).JSON(toOrderView(o))
}

// PATCH /orders/:id
func (h *OrderHandler) SubmitEvidence(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid order id")
	}
	var req evidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if req.Status != "" && req.Status != string(domain.StatusPendingReview) {
		return badRequest(c, "status", "status must be PENDING_REVIEW")
	}
	url, ok := validate.EvidenceURL(req.PaymentEvidenceURL)
	if !ok {
		return badRequest(c, "paymentEvidenceUrl", "paymentEvidenceUrl must be an absolute http(s) URL")
	}

	o, err := h.Orders.SubmitPaymentEvidence(c.UserContext(), u.ID, id, url)
	if err != nil {
		return fail(c, "order.evidence.fail", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "order.evidence", map[string]any{"order_id": o.ID})
	return c.JSON(toOrderView(o))
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "orders.history.fail", err, nil)
	}
	return c.JSON(toOrderViews(orders))
}

// GET /orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return respondError(c, services.ErrNotFound)
	}
	o, err := h.Orders.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "access.denied.order", err, map[string]any{"order_id": id})
	}
	return c.JSON(toOrderView(o))
}
