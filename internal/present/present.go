// Package present turns orders into view models. One function serves every
// dashboard; what differs between them is the Capabilities passed in.
package present

import (
	"strconv"
	"strings"
	"time"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"
)

type Capabilities struct {
	CanAdvanceStatus bool `json:"can_advance_status"`
	CanCancel        bool `json:"can_cancel"`
	Compact          bool `json:"compact"`
}

var (
	CashierView = Capabilities{CanAdvanceStatus: true, CanCancel: true}
	KiosView    = Capabilities{CanAdvanceStatus: true, CanCancel: true}
	MonitorView = Capabilities{Compact: true}
)

// ForRole picks the preset of the signed-in operator.
func ForRole(role models.UserRole) Capabilities {
	if role == models.RoleKios {
		return KiosView
	}
	return CashierView
}

type ActionKind string

const (
	ActionAdvance ActionKind = "advance"
	ActionCancel  ActionKind = "cancel"
)

// Action is a button on a card; Request is the exact payload to PUT.
type Action struct {
	Kind    ActionKind                     `json:"kind"`
	Label   string                         `json:"label"`
	Request models.UpdateOrderStatusRequest `json:"request"`
}

type Line struct {
	MenuName string `json:"menu_name"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
	Notes    string `json:"notes,omitempty"`
}

type OrderCard struct {
	ID            uint               `json:"id"`
	QueueNumber   string             `json:"queue_number"`
	Customer      string             `json:"customer"`
	KiosName      string             `json:"kios_name,omitempty"`
	Status        models.OrderStatus `json:"status"`
	StatusText    string             `json:"status_text"`
	Tone          string             `json:"tone"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	CreatedBy     string             `json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Notes         string             `json:"notes,omitempty"`
	Items         []Line             `json:"items,omitempty"`
	Actions       []Action           `json:"actions"`
}

const anonymousCustomer = "Customer"

// Card renders o under caps. Actions are only offered when caps allow them
// and the machine has a transition for the current status.
func Card(o models.Order, caps Capabilities, m orderflow.Machine) OrderCard {
	card := OrderCard{
		ID:          o.ID,
		QueueNumber: o.QueueNumber,
		Customer:    o.CustomerName,
		Status:      o.Status,
		StatusText:  StatusText(o.Status),
		Tone:        Tone(o.Status),
		Total:       FormatRupiah(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		Actions:     []Action{},
	}
	if strings.TrimSpace(card.Customer) == "" {
		card.Customer = anonymousCustomer
	}

	if !caps.Compact {
		card.KiosName = o.KiosName
		card.PaymentMethod = string(o.PaymentMethod)
		card.CreatedBy = o.CreatorName
		card.Notes = o.Notes
		card.Items = make([]Line, 0, len(o.OrderItems))
		for _, it := range o.OrderItems {
			card.Items = append(card.Items, Line{
				MenuName: it.MenuName,
				Quantity: it.Quantity,
				Subtotal: FormatRupiah(it.Subtotal),
				Notes:    it.Notes,
			})
		}
	}

	if caps.CanAdvanceStatus {
		if t, ok := orderflow.Forward(o.Status); ok {
			if req, err := m.Advance(o.Status, ""); err == nil {
				card.Actions = append(card.Actions, Action{Kind: ActionAdvance, Label: t.Label, Request: req})
			}
		}
	}
	if caps.CanCancel {
		if req, err := orderflow.Cancel(o.Status); err == nil {
			card.Actions = append(card.Actions, Action{Kind: ActionCancel, Label: orderflow.CancelLabel, Request: req})
		}
	}
	return card
}

func Cards(orders []models.Order, caps Capabilities, m orderflow.Machine) []OrderCard {
	out := make([]OrderCard, 0, len(orders))
	for _, o := range orders {
		out = append(out, Card(o, caps, m))
	}
	return out
}

func StatusText(s models.OrderStatus) string {
	switch s {
	case models.StatusPending:
		return "Awaiting payment"
	case models.StatusPaid:
		return "Paid"
	case models.StatusPreparing:
		return "Preparing"
	case models.StatusReady:
		return "Ready for pickup"
	case models.StatusCompleted:
		return "Completed"
	case models.StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Tone is the badge colour of a status.
func Tone(s models.OrderStatus) string {
	switch s {
	case models.StatusPending:
		return "yellow"
	case models.StatusPaid:
		return "blue"
	case models.StatusPreparing:
		return "orange"
	case models.StatusReady:
		return "green"
	case models.StatusCancelled:
		return "red"
	}
	return "gray"
}

// FormatRupiah renders whole rupiah with dot thousands separators,
// e.g. 25000 -> "Rp 25.000".
func FormatRupiah(amount int64) string {
	sign := ""
	u := uint64(amount)
	if amount < 0 {
		sign = "-"
		u = uint64(-(amount + 1)) + 1
	}
	digits := strconv.FormatUint(u, 10)

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("Rp ")
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
