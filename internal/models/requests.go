package models

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type KiosRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type MenuRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       int64        `json:"price"`
	Category    MenuCategory `json:"category"`
	ImageURL    string       `json:"image_url,omitempty"`
	IsAvailable *bool        `json:"is_available,omitempty"`
}

// MenuUpdate is a partial menu edit; nil fields are left untouched.
type MenuUpdate struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Price       *int64        `json:"price,omitempty"`
	Category    *MenuCategory `json:"category,omitempty"`
	ImageURL    *string       `json:"image_url,omitempty"`
	IsAvailable *bool         `json:"is_available,omitempty"`
}

type CreateOrderRequest struct {
	KiosID       uint                     `json:"kios_id"`
	CustomerName string                   `json:"customer_name,omitempty"`
	Notes        string                   `json:"notes,omitempty"`
	Items        []CreateOrderItemRequest `json:"items"`
}

type CreateOrderItemRequest struct {
	MenuID   uint   `json:"menu_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
}
