package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultUserID is the anonymous identity used while auth is not enforced.
const DefaultUserID = "default_user"

// UserIDFromToken resolves the user id carried by a bearer token, "" when the
// token is missing or invalid. Shared by the HTTP middleware and the
// websocket upgrade, which carries its token as a query param.
func UserIDFromToken(tokenStr string) string {
	if tokenStr == "" {
		return ""
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}

	userId, _ := claims["user_id"].(string)
	return userId
}

// JwtMiddleware resolves the caller identity. Default mode is permissive: a
// missing or invalid token falls back to the anonymous default user.
// AUTH_REQUIRED=true turns that into a 401.
func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := ""
	authHeader := ctx.Get("Authorization")
	if len(authHeader) >= 7 && authHeader[:7] == "Bearer " {
		tokenStr = authHeader[7:]
	}

	userId := UserIDFromToken(tokenStr)
	if userId == "" {
		if os.Getenv("AUTH_REQUIRED") == "true" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing or invalid token"))
		}
		userId = DefaultUserID
	}

	ctx.Locals("user_id", userId)
	return ctx.Next()
}
