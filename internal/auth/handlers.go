package auth

import (
	"errors"

	"backend-snapgraph/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

// HeaderSessionKey carries the key shared with the identity collaborator.
const HeaderSessionKey = "X-Session-Key"

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "invalid payload"))
		}
		user, tokens, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.Created(c, "User registered", fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "email and password required"))
		}
		user, tokens, err := svc.Login(c.UserContext(), req)
		if errors.Is(err, errInvalidCredentials) {
			return response.Fail(c, fiber.NewError(fiber.StatusUnauthorized, err.Error()))
		}
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "User successfully authenticated", fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/session", func(c *fiber.Ctx) error {
		var req SessionRequest
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "invalid payload"))
		}
		req.Key = c.Get(HeaderSessionKey)
		user, tokens, err := svc.Session(c.UserContext(), req)
		if errors.Is(err, errSessionRejected) {
			return response.Fail(c, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized access"))
		}
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "User successfully authenticated", fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return response.Fail(c, fiber.NewError(fiber.StatusBadRequest, "refresh_token required"))
		}

		userID, err := svc.ValidateRefreshToken(c.UserContext(), req.RefreshToken)
		if err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusUnauthorized, err.Error()))
		}

		tokens, err := svc.GenerateTokens(c.UserContext(), userID)
		if err != nil {
			return response.Fail(c, err)
		}
		return response.OK(c, "Token refreshed", tokens)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return response.Fail(c, fiber.NewError(fiber.StatusUnauthorized, "missing bearer token"))
		}

		userID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return response.Fail(c, fiber.NewError(fiber.StatusUnauthorized, err.Error()))
		}
		return response.OK(c, "Token valid", fiber.Map{"userId": userID})
	})
}
