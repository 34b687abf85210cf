package middleware

import (
	"strings"

	"github.com/AzielCF/az-wap/domains/auth"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/gofiber/fiber/v2"
)

const PrincipalLocalsKey = "principal"

// Auth resolves the bearer token on every request into an auth.Principal
// and stores it in c.Locals, the way the teacher stashes X-Instance-Token
// lookups for downstream handlers. Token is read from the Authorization
// header ("Bearer <token>") or, failing that, a token query param.
func Auth(resolver auth.IResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		principal, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			ge, ok := err.(apierr.GenericError)
			if ok {
				return c.Status(ge.StatusCode()).JSON(fiber.Map{"status": ge.StatusCode(), "code": ge.ErrCode(), "message": ge.Error()})
			}
			return c.Status(401).JSON(fiber.Map{"status": 401, "code": "auth_denied", "message": "unauthorized"})
		}
		c.Locals(PrincipalLocalsKey, principal)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header != "" {
		return header
	}
	return c.Query("token")
}

// PrincipalFromCtx reads back the principal Auth stashed on the request.
func PrincipalFromCtx(c *fiber.Ctx) auth.Principal {
	p, _ := c.Locals(PrincipalLocalsKey).(auth.Principal)
	return p
}
