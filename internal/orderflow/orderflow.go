// Package orderflow holds the order status workflow: which status may follow
// which, what the operator-facing action is called, and what payload a
// transition request carries. It performs no I/O.
package orderflow

import (
	"errors"
	"fmt"

	"foodcourt-dashboard/internal/models"
)

var (
	ErrTerminal          = errors.New("orderflow: order is in a terminal status")
	ErrUnknownStatus     = errors.New("orderflow: unknown order status")
	ErrInvalidTransition = errors.New("orderflow: transition not permitted")
	ErrInvalidPayment    = errors.New("orderflow: invalid payment method")
)

type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Label string             `json:"label"`
	// Only pending -> paid carries a payment method.
	NeedsPayment bool `json:"needs_payment"`
}

var forward = map[models.OrderStatus]Transition{
	models.StatusPending:   {From: models.StatusPending, To: models.StatusPaid, Label: "Confirm payment", NeedsPayment: true},
	models.StatusPaid:      {From: models.StatusPaid, To: models.StatusPreparing, Label: "Start preparing"},
	models.StatusPreparing: {From: models.StatusPreparing, To: models.StatusReady, Label: "Mark ready"},
	models.StatusReady:     {From: models.StatusReady, To: models.StatusCompleted, Label: "Mark completed"},
}

const CancelLabel = "Cancel order"

func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusCompleted || s == models.StatusCancelled
}

// Next returns the single forward successor of s. ok is false for terminal
// and unknown statuses.
func Next(s models.OrderStatus) (next models.OrderStatus, ok bool) {
	t, ok := forward[s]
	if !ok {
		return "", false
	}
	return t.To, true
}

func Forward(s models.OrderStatus) (Transition, bool) {
	t, ok := forward[s]
	return t, ok
}

// ActionLabel is the label of the forward action offered for s, or "" when
// there is none.
func ActionLabel(s models.OrderStatus) string {
	return forward[s].Label
}

func CanCancel(s models.OrderStatus) bool {
	return s.Valid() && !IsTerminal(s)
}

func Cancel(s models.OrderStatus) (models.UpdateOrderStatusRequest, error) {
	if !s.Valid() {
		return models.UpdateOrderStatusRequest{}, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	if IsTerminal(s) {
		return models.UpdateOrderStatusRequest{}, ErrTerminal
	}
	return models.UpdateOrderStatusRequest{Status: models.StatusCancelled}, nil
}

// Machine builds transition payloads. DefaultPayment is used when a payment
// confirmation is requested without an explicit method.
type Machine struct {
	DefaultPayment models.PaymentMethod
}

func NewMachine(defaultPayment models.PaymentMethod) Machine {
	if defaultPayment == "" {
		defaultPayment = models.PaymentCash
	}
	return Machine{DefaultPayment: defaultPayment}
}

// Advance builds the payload for the forward transition out of s.
func (m Machine) Advance(s models.OrderStatus, method models.PaymentMethod) (models.UpdateOrderStatusRequest, error) {
	if !s.Valid() {
		return models.UpdateOrderStatusRequest{}, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	t, ok := forward[s]
	if !ok {
		return models.UpdateOrderStatusRequest{}, ErrTerminal
	}
	req := models.UpdateOrderStatusRequest{Status: t.To}
	if t.NeedsPayment {
		if method == "" {
			method = m.DefaultPayment
		}
		if !method.Valid() {
			return models.UpdateOrderStatusRequest{}, fmt.Errorf("%w: %q", ErrInvalidPayment, method)
		}
		req.PaymentMethod = method
	}
	return req, nil
}

// Transition validates a requested target status against the current one and
// returns the payload. The target must be the forward successor or cancelled.
func (m Machine) Transition(from, to models.OrderStatus, method models.PaymentMethod) (models.UpdateOrderStatusRequest, error) {
	if to == models.StatusCancelled {
		return Cancel(from)
	}
	next, ok := Next(from)
	if !ok {
		if !from.Valid() {
			return models.UpdateOrderStatusRequest{}, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
		}
		return models.UpdateOrderStatusRequest{}, ErrTerminal
	}
	if next != to {
		return models.UpdateOrderStatusRequest{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return m.Advance(from, method)
}
