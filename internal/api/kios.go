package api

import (
	"context"
	"fmt"
	"net/http"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/validation"
)

func (c *Client) ListKios(ctx context.Context) ([]models.Kios, error) {
	out := []models.Kios{}
	if err := c.do(ctx, call{method: http.MethodGet, path: "/kios/", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetKios(ctx context.Context, id uint) (models.Kios, error) {
	var k models.Kios
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/kios/%d", id), out: &k})
	return k, err
}

func (c *Client) CreateKios(ctx context.Context, req models.KiosRequest) (models.Kios, error) {
	if err := validation.Kios(req); err != nil {
		return models.Kios{}, err
	}
	var k models.Kios
	err := c.do(ctx, call{method: http.MethodPost, path: "/kios/", body: req, out: &k})
	return k, err
}

func (c *Client) UpdateKios(ctx context.Context, id uint, req models.KiosRequest) (models.Kios, error) {
	if err := validation.Kios(req); err != nil {
		return models.Kios{}, err
	}
	var k models.Kios
	err := c.do(ctx, call{method: http.MethodPut, path: fmt.Sprintf("/kios/%d", id), body: req, out: &k})
	return k, err
}

// DeleteKios leaves the safety decision to the backend, which rejects
// deleting a kios that still owns menus.
func (c *Client) DeleteKios(ctx context.Context, id uint) error {
	return c.do(ctx, call{method: http.MethodDelete, path: fmt.Sprintf("/kios/%d", id)})
}
