package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalsUserID is the fiber locals key holding the authenticated subject id.
const LocalsUserID = "user_id"

// JWTMiddleware validates bearer tokens and stores the subject id in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid || claims.UserID <= 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		c.Locals(LocalsUserID, claims.UserID)
		return c.Next()
	}
}

// SubjectID returns the id JWTMiddleware stored for this request.
func SubjectID(c *fiber.Ctx) (int64, error) {
	id, ok := c.Locals(LocalsUserID).(int64)
	if !ok || id <= 0 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized access")
	}
	return id, nil
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
