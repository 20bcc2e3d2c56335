package models

import "time"

type Kios struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	IsActive    bool      `json:"is_active"`
	MenuCount   int       `json:"menu_count"`
	OrderCount  int       `json:"order_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Menus  []Menu  `json:"menus,omitempty"`
	Orders []Order `json:"orders,omitempty"`
}
