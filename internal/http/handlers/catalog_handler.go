package handlers

import (
	"github.com/gofiber/fiber/v2"

	"courseshop/internal/domain"
	"courseshop/internal/services"
	"courseshop/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

type courseView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Free  bool   `json:"free"`
}

func toCourseView(c domain.Course) courseView {
	p := c.EffectivePrice()
	return courseView{ID: c.ID, Title: c.Title, Price: p.StringFixed(2), Free: p.IsZero()}
}

// GET /courses
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	courses, err := h.Catalog.ListCourses(c.UserContext())
	if err != nil {
		return fail(c, "catalog.list.fail", err, nil)
	}
	out := make([]courseView, 0, len(courses))
	for _, co := range courses {
		out = append(out, toCourseView(co))
	}
	return c.JSON(out)
}

// GET /courses/:id
func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return respondError(c, services.ErrNotFound)
	}
	co, err := h.Catalog.GetCourse(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.detail.fail", err, map[string]any{"course_id": id})
	}
	return c.JSON(toCourseView(co))
}
