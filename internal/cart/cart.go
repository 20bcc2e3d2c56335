// Package cart builds a new order from menu picks. Totals are computed here
// before submission; the backend returns the authoritative amount.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/validation"
)

var (
	ErrMenuUnavailable = errors.New("cart: menu is not available")
	ErrForeignMenu     = errors.New("cart: menu belongs to another kios")
	ErrUnknownMenu     = errors.New("cart: menu not found")
)

type Line struct {
	Menu     models.Menu
	Quantity int
	Notes    string
}

func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.Menu.Price
}

type Cart struct {
	KiosID       uint
	CustomerName string
	Notes        string

	lines []Line
}

func New(kiosID uint) *Cart {
	return &Cart{KiosID: kiosID}
}

// Add puts one unit of menu in the cart, merging with an existing line.
func (c *Cart) Add(menu models.Menu) error {
	if menu.KiosID != c.KiosID {
		return fmt.Errorf("%w: menu %d", ErrForeignMenu, menu.ID)
	}
	if !menu.Orderable() {
		return fmt.Errorf("%w: %s", ErrMenuUnavailable, menu.Name)
	}
	for i := range c.lines {
		if c.lines[i].Menu.ID == menu.ID {
			c.lines[i].Quantity++
			return nil
		}
	}
	c.lines = append(c.lines, Line{Menu: menu, Quantity: 1})
	return nil
}

// SetQuantity replaces the quantity of a line; q <= 0 removes it.
func (c *Cart) SetQuantity(menuID uint, q int) {
	for i := range c.lines {
		if c.lines[i].Menu.ID != menuID {
			continue
		}
		if q <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = q
		}
		return
	}
}

func (c *Cart) SetNotes(menuID uint, notes string) {
	for i := range c.lines {
		if c.lines[i].Menu.ID == menuID {
			c.lines[i].Notes = notes
			return
		}
	}
}

func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Quantity(menuID uint) int {
	for _, l := range c.lines {
		if l.Menu.ID == menuID {
			return l.Quantity
		}
	}
	return 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Items() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, models.OrderItem{
			MenuID:   l.Menu.ID,
			MenuName: l.Menu.Name,
			Quantity: l.Quantity,
			Price:    l.Menu.Price,
			Subtotal: l.Subtotal(),
			Notes:    strings.TrimSpace(l.Notes),
		})
	}
	return items
}

func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Request returns the submission payload, or validation errors when the cart
// cannot be submitted.
func (c *Cart) Request() (models.CreateOrderRequest, error) {
	req := models.CreateOrderRequest{
		KiosID:       c.KiosID,
		CustomerName: strings.TrimSpace(c.CustomerName),
		Notes:        strings.TrimSpace(c.Notes),
		Items:        make([]models.CreateOrderItemRequest, 0, len(c.lines)),
	}
	for _, l := range c.lines {
		req.Items = append(req.Items, models.CreateOrderItemRequest{
			MenuID:   l.Menu.ID,
			Quantity: l.Quantity,
			Notes:    strings.TrimSpace(l.Notes),
		})
	}
	if err := validation.CreateOrder(req); err != nil {
		return models.CreateOrderRequest{}, err
	}
	return req, nil
}

// Fill loads requested items against the kios menu list, as submitted by a
// form: each item must name an orderable menu of this kios with a quantity
// of at least 1. Nothing is added when any item is invalid.
func (c *Cart) Fill(menus []models.Menu, items []models.CreateOrderItemRequest) error {
	if err := validation.OrderItems(items); err != nil {
		return err
	}
	byID := make(map[uint]models.Menu, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}
	for _, it := range items {
		m, ok := byID[it.MenuID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownMenu, it.MenuID)
		}
		if err := c.Add(m); err != nil {
			return err
		}
		if it.Quantity > 1 {
			c.SetQuantity(m.ID, c.Quantity(m.ID)+it.Quantity-1)
		}
		if it.Notes != "" {
			c.SetNotes(m.ID, it.Notes)
		}
	}
	return nil
}
