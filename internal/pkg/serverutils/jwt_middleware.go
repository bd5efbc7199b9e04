package serverutils

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware gates the pipeline routes behind a bearer token signed
// with JWT_SECRET. The subject is exposed to handlers via
// ctx.Locals("user_id").
func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr, found := strings.CutPrefix(ctx.Get(fiber.HeaderAuthorization), "Bearer ")
	if !found || tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing bearer token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "malformed token claims"})
	}

	subject := claims["user_id"]
	if subject == nil {
		subject, _ = claims.GetSubject()
	}
	ctx.Locals("user_id", subject)
	return ctx.Next()
}
