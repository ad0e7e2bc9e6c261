package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"courseshop/internal/services"
)

type PurchaseHandler struct {
	Grants *services.EntitlementGranter
}

type purchaseView struct {
	CourseID  string    `json:"courseId"`
	GrantedAt time.Time `json:"grantedAt"`
}

// GET /purchases
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	ents, err := h.Grants.ListForUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "purchases.list.fail", err, nil)
	}
	out := make([]purchaseView, 0, len(ents))
	for _, e := range ents {
		out = append(out, purchaseView{CourseID: e.CourseID, GrantedAt: e.CreatedAt})
	}
	return c.JSON(out)
}
