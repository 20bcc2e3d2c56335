package session

import (
	"encoding/json"
	"net/url"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	TokenCookie = "auth_token"
	UserCookie  = "user_data"
)

type CookieConfig struct {
	Secure  bool
	MaxDays int
}

// FromCookies restores the session carried by the request cookies. A user
// cookie that cannot be decoded is ignored.
func FromCookies(c *fiber.Ctx) *Store {
	return Restore(c.Cookies(TokenCookie), decodeUser(c.Cookies(UserCookie)))
}

// WriteCookies persists token and user. Both stay readable by page scripts.
func WriteCookies(c *fiber.Ctx, s *Store, cfg CookieConfig) error {
	token := s.Token()
	user := s.User()
	if token == "" || user == nil {
		ClearCookies(c)
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	expires := time.Now().AddDate(0, 0, cfg.MaxDays)
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		Secure:   cfg.Secure,
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     UserCookie,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		Expires:  expires,
		Secure:   cfg.Secure,
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func ClearCookies(c *fiber.Ctx) {
	for _, name := range []string{TokenCookie, UserCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func decodeUser(raw string) *models.User {
	if raw == "" {
		return nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(decoded), &u); err != nil {
		return nil
	}
	return &u
}
