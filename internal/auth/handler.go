package auth

import (
	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

// ClientFactory builds a backend client bound to one request's session.
type ClientFactory func(c *fiber.Ctx, s *session.Store) *api.Client

type loginScreen struct {
	Login    bool   `json:"login"`
	Redirect string `json:"redirect,omitempty"`
}

// GET /login
//
// A signed-in operator arriving here through a redirect goes straight to
// their dashboard. Without the parameter the login screen is served anyway,
// so a broken session can always be repaired by hand.
func LoginPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		redirect := c.Query("redirect")
		s := Session(c)
		if s.Token() != "" && redirect != "" {
			role := models.RoleCashier
			if u := s.User(); u != nil {
				role = u.Role
			}
			return c.Redirect(session.DashboardPath(role), fiber.StatusFound)
		}
		return c.JSON(loginScreen{Login: true, Redirect: safeRedirect(redirect)})
	}
}

type loginResult struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// POST /login
func LoginHandler(newClient ClientFactory, cookies session.CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body models.LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid login body")
		}

		s := session.NewStore()
		client := newClient(c, s)
		resp, err := client.Login(api.WithRequestID(c.UserContext(), logging.RequestID(c)), body)
		if err != nil {
			return err
		}
		if err := session.WriteCookies(c, s, cookies); err != nil {
			return err
		}

		target := safeRedirect(c.Query("redirect"))
		if target == "" {
			target = session.DashboardPath(resp.User.Role)
		}
		return c.JSON(loginResult{User: resp.User, Redirect: target})
	}
}

// POST /logout clears local credentials; the backend keeps no session.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		Session(c).Logout()
		session.ClearCookies(c)
		return c.JSON(fiber.Map{"redirect": LoginPath})
	}
}

// GET /dashboard/me validates the restored token against the backend and
// refreshes the user cookie.
func MeHandler(newClient ClientFactory, cookies session.CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := Session(c)
		u, err := newClient(c, s).Me(api.WithRequestID(c.UserContext(), logging.RequestID(c)))
		if err != nil {
			return err
		}
		if err := session.WriteCookies(c, s, cookies); err != nil {
			return err
		}
		return c.JSON(u)
	}
}
