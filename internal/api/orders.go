package api

import (
	"context"
	"fmt"
	"net/http"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/validation"
)

func (c *Client) ListOrders(ctx context.Context, kiosID uint, f models.OrderFilter) ([]models.Order, error) {
	out := []models.Order{}
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/kios/%d/orders", kiosID), query: f.Values(), out: &out})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/orders/%d", id), out: &o})
	return o, err
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	if err := validation.CreateOrder(req); err != nil {
		return models.Order{}, err
	}
	var o models.Order
	err := c.do(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/kios/%d/orders", req.KiosID), body: req, out: &o})
	return o, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, req models.UpdateOrderStatusRequest) (models.Order, error) {
	var o models.Order
	err := c.do(ctx, call{method: http.MethodPut, path: fmt.Sprintf("/orders/%d/status", id), body: req, out: &o})
	return o, err
}

// Queue returns the kios's active orders (paid, preparing, ready).
func (c *Client) Queue(ctx context.Context, kiosID uint) ([]models.Order, error) {
	out := []models.Order{}
	if err := c.do(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/kios/%d/queue", kiosID), out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}
