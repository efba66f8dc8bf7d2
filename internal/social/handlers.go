package social

import (
	"backend-snapgraph/internal/auth"
	"backend-snapgraph/internal/shared/ids"
	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/users/:userId/follow", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := ids.Parse(c.Params("userId"), "user")
		if err != nil {
			return response.Fail(c, err)
		}
		subject, err := auth.SubjectID(c)
		if err != nil {
			return response.Fail(c, err)
		}
		if subject != userID {
			return response.Fail(c, fiber.NewError(fiber.StatusForbidden, "Cannot change follows of another user"))
		}

		var req followRequest
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "Invalid target user ID"))
		}
		targetID, err := ids.FromNumber(req.TargetUserID, "target user")
		if err != nil {
			return response.Fail(c, err)
		}

		res, err := svc.ToggleFollow(c.UserContext(), userID, targetID)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "Follow status updated", res)
	})

	r.Post("/posts/:postId/like", authMiddleware, func(c *fiber.Ctx) error {
		postID, err := ids.Parse(c.Params("postId"), "post")
		if err != nil {
			return response.Fail(c, err)
		}
		subject, err := auth.SubjectID(c)
		if err != nil {
			return response.Fail(c, err)
		}

		// The body may still name the user; it has to be the caller.
		var req likeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID"))
			}
		}
		if req.UserID != "" {
			userID, err := ids.FromNumber(req.UserID, "user")
			if err != nil {
				return response.Fail(c, err)
			}
			if userID != subject {
				return response.Fail(c, fiber.NewError(fiber.StatusForbidden, "Cannot like on behalf of another user"))
			}
		}

		res, err := svc.ToggleLike(c.UserContext(), subject, postID)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "Post like status updated", res)
	})
}
