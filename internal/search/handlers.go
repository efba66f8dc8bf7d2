package search

import (
	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/search", authMiddleware, func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "Invalid or missing search query"))
		}
		res, err := svc.Search(c.UserContext(), req.Query)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "Search results retrieved successfully", res)
	})
}
