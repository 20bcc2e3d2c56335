package models

import "time"

type MenuCategory string

const (
	CategoryFood    MenuCategory = "food"
	CategoryDrink   MenuCategory = "drink"
	CategorySnack   MenuCategory = "snack"
	CategoryDessert MenuCategory = "dessert"
)

var MenuCategories = []MenuCategory{CategoryFood, CategoryDrink, CategorySnack, CategoryDessert}

func (c MenuCategory) Valid() bool {
	for _, v := range MenuCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Menu struct {
	ID          uint         `json:"id"`
	KiosID      uint         `json:"kios_id"`
	KiosName    string       `json:"kios_name"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       int64        `json:"price"`
	Category    MenuCategory `json:"category"`
	ImageURL    string       `json:"image_url"`
	IsAvailable bool         `json:"is_available"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Orderable reports whether the menu may be picked for a new order item.
// Unavailable menus stay valid for displaying historical orders.
func (m Menu) Orderable() bool {
	return m.IsAvailable
}
