package api

import (
	"context"
	"errors"
	"net/http"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/validation"
)

var ErrEmptyToken = errors.New("api: login response carried no token")

type loginBody struct {
	Token string                `json:"token"`
	User  models.User           `json:"user"`
	Data  *models.LoginResponse `json:"data"`
}

// Login authenticates and, on success, stores token and user in the session
// before it reports authenticated.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	if err := validation.Login(req); err != nil {
		return models.LoginResponse{}, err
	}
	if err := c.session.BeginLogin(); err != nil {
		return models.LoginResponse{}, err
	}

	var body loginBody
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: req, out: &body, public: true, raw: true})
	if err != nil {
		c.session.FailLogin()
		return models.LoginResponse{}, err
	}

	resp := models.LoginResponse{Token: body.Token, User: body.User}
	if resp.Token == "" && body.Data != nil {
		resp = *body.Data
	}
	if resp.Token == "" {
		c.session.FailLogin()
		return models.LoginResponse{}, ErrEmptyToken
	}
	if err := c.session.CompleteLogin(resp.Token, resp.User); err != nil {
		return models.LoginResponse{}, err
	}
	return resp, nil
}

// Me fetches the profile and refreshes the cached user. It is the lazy
// validation of an optimistically restored token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/me", out: &u}); err != nil {
		return models.User{}, err
	}
	c.session.SetUser(u)
	return u, nil
}

// Logout clears local state only; the backend is not involved.
func (c *Client) Logout() {
	c.session.Logout()
}
