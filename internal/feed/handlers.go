package feed

import (
	"strconv"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/auth"
	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

// HeaderNextCursor carries the cursor of the next page when a limited page
// came back full.
const HeaderNextCursor = "X-Next-Cursor"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		viewer, err := auth.SubjectID(c)
		if err != nil {
			return response.Fail(c, err)
		}

		var page Page
		if raw := c.Query("limit"); raw != "" {
			page.Limit, err = strconv.Atoi(raw)
			if err != nil {
				return response.Fail(c, apperr.Validation("Invalid limit"))
			}
		}
		if raw := c.Query("before"); raw != "" {
			page.Before, err = ParseCursor(raw)
			if err != nil {
				return response.Fail(c, err)
			}
		}

		posts, err := svc.BuildFeed(c.UserContext(), viewer, page)
		if err != nil {
			return response.Fail(c, err)
		}
		if next := NextCursor(posts, page); next != nil {
			c.Set(HeaderNextCursor, next.String())
		}
		return response.OK(c, "Feed retrieved successfully", posts)
	})
}
