package user

import (
	"backend-snapgraph/internal/auth"
	"backend-snapgraph/internal/shared/ids"
	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/users/:userId/profile", authMiddleware, func(c *fiber.Ctx) error {
		id, err := ids.Parse(c.Params("userId"), "user")
		if err != nil {
			return response.Fail(c, err)
		}
		p, err := svc.GetProfile(c.UserContext(), id)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "User profile retrieved successfully", p)
	})

	r.Put("/users/:userId/profile", authMiddleware, func(c *fiber.Ctx) error {
		id, err := ids.Parse(c.Params("userId"), "user")
		if err != nil {
			return response.Fail(c, err)
		}
		subject, err := auth.SubjectID(c)
		if err != nil {
			return response.Fail(c, err)
		}
		if subject != id {
			return response.Fail(c, fiber.NewError(fiber.StatusForbidden, "Cannot edit another user's profile"))
		}

		var patch ProfilePatch
		if err := c.BodyParser(&patch); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "invalid payload"))
		}
		p, err := svc.UpdateProfile(c.UserContext(), id, patch)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "User profile updated successfully", p)
	})
}
