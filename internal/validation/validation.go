// Package validation checks form input before anything is sent to the
// backend.
package validation

import (
	"fmt"
	"strings"

	"foodcourt-dashboard/internal/models"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil for an empty list so callers can `return errs.err()`.
func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func Login(req models.LoginRequest) error {
	var errs Errors
	if strings.TrimSpace(req.Username) == "" {
		errs.add("username", "is required")
	}
	if req.Password == "" {
		errs.add("password", "is required")
	}
	return errs.err()
}

func Kios(req models.KiosRequest) error {
	var errs Errors
	if strings.TrimSpace(req.Name) == "" {
		errs.add("name", "is required")
	}
	return errs.err()
}

func Menu(req models.MenuRequest) error {
	var errs Errors
	if strings.TrimSpace(req.Name) == "" {
		errs.add("name", "is required")
	}
	if req.Price <= 0 {
		errs.add("price", "must be greater than zero")
	}
	if !req.Category.Valid() {
		errs.add("category", "must be one of food, drink, snack, dessert")
	}
	return errs.err()
}

func MenuUpdate(req models.MenuUpdate) error {
	var errs Errors
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs.add("name", "must not be empty")
	}
	if req.Price != nil && *req.Price <= 0 {
		errs.add("price", "must be greater than zero")
	}
	if req.Category != nil && !req.Category.Valid() {
		errs.add("category", "must be one of food, drink, snack, dessert")
	}
	return errs.err()
}

func CreateOrder(req models.CreateOrderRequest) error {
	var errs Errors
	if req.KiosID == 0 {
		errs.add("kios_id", "is required")
	}
	if len(req.Items) == 0 {
		errs.add("items", "at least one item is required")
	}
	errs.items(req.Items)
	return errs.err()
}

// OrderItems checks submitted order lines on their own, before they are
// matched against menus.
func OrderItems(items []models.CreateOrderItemRequest) error {
	var errs Errors
	errs.items(items)
	return errs.err()
}

func (e *Errors) items(items []models.CreateOrderItemRequest) {
	for i, it := range items {
		if it.MenuID == 0 {
			e.add(fmt.Sprintf("items[%d].menu_id", i), "is required")
		}
		if it.Quantity < 1 {
			e.add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
}
