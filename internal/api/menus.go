package api

import (
	"context"
	"fmt"
	"net/http"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/validation"
)

func (c *Client) ListMenus(ctx context.Context, kiosID uint, f models.MenuFilter) ([]models.Menu, error) {
	out := []models.Menu{}
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/kios/%d/menus", kiosID), query: f.Values(), out: &out})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMenu(ctx context.Context, id uint) (models.Menu, error) {
	var m models.Menu
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/menus/%d", id), out: &m})
	return m, err
}

func (c *Client) CreateMenu(ctx context.Context, kiosID uint, req models.MenuRequest) (models.Menu, error) {
	if err := validation.Menu(req); err != nil {
		return models.Menu{}, err
	}
	var m models.Menu
	err := c.do(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/kios/%d/menus", kiosID), body: req, out: &m})
	return m, err
}

func (c *Client) UpdateMenu(ctx context.Context, id uint, req models.MenuUpdate) (models.Menu, error) {
	if err := validation.MenuUpdate(req); err != nil {
		return models.Menu{}, err
	}
	var m models.Menu
	err := c.do(ctx, call{method: http.MethodPut, path: fmt.Sprintf("/menus/%d", id), body: req, out: &m})
	return m, err
}

func (c *Client) DeleteMenu(ctx context.Context, id uint) error {
	return c.do(ctx, call{method: http.MethodDelete, path: fmt.Sprintf("/menus/%d", id)})
}

// ToggleMenuAvailability flips is_available based on the current record.
func (c *Client) ToggleMenuAvailability(ctx context.Context, id uint) (models.Menu, error) {
	current, err := c.GetMenu(ctx, id)
	if err != nil {
		return models.Menu{}, err
	}
	flipped := !current.IsAvailable
	return c.UpdateMenu(ctx, id, models.MenuUpdate{IsAvailable: &flipped})
}
