package post

import (
	"backend-snapgraph/internal/auth"
	"backend-snapgraph/internal/shared/ids"
	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/posts", authMiddleware, func(c *fiber.Ctx) error {
		subject, err := auth.SubjectID(c)
		if err != nil {
			return response.Fail(c, err)
		}

		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "Missing required fields"))
		}
		if req.UserID != "" {
			userID, err := ids.FromNumber(req.UserID, "user")
			if err != nil {
				return response.Fail(c, err)
			}
			if userID != subject {
				return response.Fail(c, fiber.NewError(fiber.StatusForbidden, "Cannot post on behalf of another user"))
			}
		}

		out, err := svc.CreatePost(c.UserContext(), CreateInput{
			UserID:   subject,
			ImageURL: req.ImageURL,
			Caption:  req.Caption,
			Hashtags: req.Hashtags,
		})
		if err != nil {
			return response.Fail(c, err)
		}
		return response.Created(c, "Post created successfully", out)
	})

	r.Get("/posts/:postId", authMiddleware, func(c *fiber.Ctx) error {
		id, err := ids.Parse(c.Params("postId"), "post")
		if err != nil {
			return response.Fail(c, err)
		}
		d, err := svc.GetPost(c.UserContext(), id)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "Post retrieved successfully", d)
	})
}
