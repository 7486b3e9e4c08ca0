package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"entrykit/internal/engine"
)

const userKey = "user"

// Authenticate verifies the bearer token and stores the caller as a
// *UserContext in the request locals.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return challenge(c, err)
		}
		claims, err := ParseAccessToken(token, secret)
		if err != nil {
			return challenge(c, engine.UnauthorizedError("Invalid or expired token"))
		}
		c.Locals(userKey, &UserContext{ID: claims.Subject, Roles: claims.Roles})
		return c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
// It must run after Authenticate.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return challenge(c, engine.UnauthorizedError("Missing auth token"))
		}
		for _, role := range roles {
			if user.HasRole(role) {
				return c.Next()
			}
		}
		return engine.ForbiddenError("Requires one of the roles: " + strings.Join(roles, ", "))
	}
}

// RequireAdmin guards the entry type admin API.
func RequireAdmin() fiber.Handler {
	return RequireRole(RoleAdmin, RoleManageEntryTypes)
}

// GetUser returns the authenticated caller, or nil.
func GetUser(c *fiber.Ctx) *UserContext {
	user, _ := c.Locals(userKey).(*UserContext)
	return user
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", engine.UnauthorizedError("Missing auth token")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", engine.UnauthorizedError("Invalid auth header format")
	}
	return token, nil
}

func challenge(c *fiber.Ctx, err error) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="entrykit"`)
	return err
}
