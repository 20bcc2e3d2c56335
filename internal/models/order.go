package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusPaid, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentDigital PaymentMethod = "digital"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard || p == PaymentDigital
}

type Order struct {
	ID            uint          `json:"id"`
	QueueNumber   string        `json:"queue_number"`
	KiosID        uint          `json:"kios_id"`
	KiosName      string        `json:"kios_name"`
	CustomerName  string        `json:"customer_name"`
	Status        OrderStatus   `json:"status"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`

	// Set once each, in this order, as the order advances.
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PreparedAt  *time.Time `json:"prepared_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Notes       string      `json:"notes"`
	OrderItems  []OrderItem `json:"order_items"`
	CreatedBy   uint        `json:"created_by"`
	CreatorName string      `json:"creator_name"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID       uint   `json:"id"`
	MenuID   uint   `json:"menu_id"`
	MenuName string `json:"menu_name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Subtotal int64  `json:"subtotal"`
	Notes    string `json:"notes"`
}
