// Package orders performs order mutations for an operator and makes every
// open view that shows the affected kios refresh right away.
package orders

import (
	"context"
	"fmt"

	"foodcourt-dashboard/internal/audit"
	"foodcourt-dashboard/internal/cart"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"

	"github.com/sirupsen/logrus"
)

type Backend interface {
	GetOrder(ctx context.Context, id uint) (models.Order, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, req models.UpdateOrderStatusRequest) (models.Order, error)
}

type Invalidator interface {
	Invalidate(kiosID uint) int
}

// Actor is who performs a mutation, for the action log.
type Actor struct {
	User      models.User
	RequestID string
}

type Service struct {
	backend Backend
	views   Invalidator
	machine orderflow.Machine
	audit   audit.Recorder
	log     *logrus.Entry
}

func NewService(backend Backend, views Invalidator, machine orderflow.Machine, rec audit.Recorder, log *logrus.Entry) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{backend: backend, views: views, machine: machine, audit: rec, log: log.WithField("component", "orders")}
}

func (s *Service) Machine() orderflow.Machine { return s.machine }

// UpdateStatus moves an order to target. The current status is read fresh
// so the transition is validated against the backend's state, not a possibly
// stale view. method only matters for pending -> paid; empty means the
// configured default.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, orderID uint, target models.OrderStatus, method models.PaymentMethod) (models.Order, error) {
	current, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	return s.UpdateStatusFrom(ctx, actor, current, target, method)
}

// UpdateStatusFrom is UpdateStatus for a caller that has just read the
// order itself.
func (s *Service) UpdateStatusFrom(ctx context.Context, actor Actor, current models.Order, target models.OrderStatus, method models.PaymentMethod) (models.Order, error) {
	orderID := current.ID
	req, err := s.machine.Transition(current.Status, target, method)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %d: %w", orderID, err)
	}

	updated, err := s.backend.UpdateOrderStatus(ctx, orderID, req)
	if err != nil {
		return models.Order{}, err
	}
	if updated.KiosID == 0 {
		updated.KiosID = current.KiosID
	}
	s.views.Invalidate(updated.KiosID)

	s.record(ctx, actor, audit.Entry{
		KiosID:      &updated.KiosID,
		EntityType:  "order",
		EntityID:    orderID,
		Action:      models.ActionStatusChange,
		Description: fmt.Sprintf("%s: %s -> %s", current.QueueNumber, current.Status, req.Status),
		Before:      statusSnapshot(current),
		After:       statusSnapshot(updated),
	})
	return updated, nil
}

// Advance applies the single forward transition of the order's status.
func (s *Service) Advance(ctx context.Context, actor Actor, orderID uint, method models.PaymentMethod) (models.Order, error) {
	current, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	return s.AdvanceFrom(ctx, actor, current, method)
}

func (s *Service) AdvanceFrom(ctx context.Context, actor Actor, current models.Order, method models.PaymentMethod) (models.Order, error) {
	next, ok := orderflow.Next(current.Status)
	if !ok {
		return models.Order{}, fmt.Errorf("order %d: %w", current.ID, orderflow.ErrTerminal)
	}
	return s.UpdateStatusFrom(ctx, actor, current, next, method)
}

// Create submits the cart as a new order.
func (s *Service) Create(ctx context.Context, actor Actor, c *cart.Cart) (models.Order, error) {
	req, err := c.Request()
	if err != nil {
		return models.Order{}, err
	}
	created, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		return models.Order{}, err
	}
	if created.TotalAmount != c.Total() {
		s.log.WithFields(logrus.Fields{
			"order_id": created.ID,
			"local":    c.Total(),
			"backend":  created.TotalAmount,
		}).Warn("backend total differs from cart total")
	}
	s.views.Invalidate(req.KiosID)

	s.record(ctx, actor, audit.Entry{
		KiosID:      &req.KiosID,
		EntityType:  "order",
		EntityID:    created.ID,
		Action:      models.ActionCreate,
		Description: fmt.Sprintf("order %s, %d items", created.QueueNumber, c.ItemCount()),
		After:       created,
	})
	return created, nil
}

type statusView struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
}

func statusSnapshot(o models.Order) statusView {
	return statusView{Status: o.Status, PaymentMethod: o.PaymentMethod}
}

// record never fails the mutation: the backend change already happened.
func (s *Service) record(ctx context.Context, actor Actor, e audit.Entry) {
	e.Actor = actor.User
	e.RequestID = actor.RequestID
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.WithError(err).WithField("entity_id", e.EntityID).Warn("action log write failed")
	}
}
