// Package auth restores the operator session from cookies on every request
// and guards the dashboard routes with it.
package auth

import (
	"net/url"
	"strings"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxSessionKey  = "session"
	CtxUserRoleKey = "user_role"
	CtxKiosIDKey   = "kios_id"
)

const LoginPath = "/login"

// SessionMiddleware restores the session carried by the request cookies. An
// expired token is dropped along with its cookies.
func SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := session.FromCookies(c)
		if s.State() == session.StateExpired {
			session.ClearCookies(c)
		}
		c.Locals(CtxSessionKey, s)
		if u := s.User(); u != nil {
			c.Locals(CtxUserRoleKey, u.Role)
			c.Locals(CtxKiosIDKey, u.KiosID)
		}
		return c.Next()
	}
}

// NavigationGate sends visitors without a usable token to the login screen,
// remembering where they were headed.
func NavigationGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Session(c).Token() == "" {
			return c.Redirect(LoginRedirect(c.Path()), fiber.StatusFound)
		}
		return c.Next()
	}
}

func LoginRedirect(path string) string {
	return LoginPath + "?redirect=" + url.QueryEscape(path)
}

// RequireRole needs the cached user record. A token without one is let
// through only by routes that do not call it.
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role unknown, sign in again")
		}
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "not allowed for role "+string(role))
	}
}

// Session is the request's session; SessionMiddleware must run first.
func Session(c *fiber.Ctx) *session.Store {
	if s, ok := c.Locals(CtxSessionKey).(*session.Store); ok {
		return s
	}
	return session.NewStore()
}

// OwnKios is the kios of a kios-owner, 0 for everyone else.
func OwnKios(c *fiber.Ctx) uint {
	if id, ok := c.Locals(CtxKiosIDKey).(*uint); ok && id != nil {
		return *id
	}
	return 0
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	return target
}
