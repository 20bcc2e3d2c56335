package dashboard

import (
	"context"
	"fmt"
	"strconv"

	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/audit"
	"foodcourt-dashboard/internal/auth"
	"foodcourt-dashboard/internal/cart"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"
	"foodcourt-dashboard/internal/present"

	"github.com/gofiber/fiber/v2"
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (d *Dashboard) callContext(c *fiber.Ctx) (*api.Client, context.Context) {
	client, _ := d.requestContext(c)
	return client, api.WithRequestID(c.UserContext(), logging.RequestID(c))
}

// record writes an action log entry; a failed write is logged and the
// mutation still succeeds.
func (d *Dashboard) record(c *fiber.Ctx, e audit.Entry) {
	a := actor(c)
	e.Actor = a.User
	e.RequestID = a.RequestID
	if err := d.actions.Record(c.UserContext(), e); err != nil {
		d.entry("audit").WithError(err).WithField("entity_id", e.EntityID).Warn("action log write failed")
	}
}

// ===== Kios (cashier) =====

func (d *Dashboard) ListKiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, ctx := d.callContext(c)
		list, err := client.ListKios(ctx)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

func (d *Dashboard) GetKiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		k, err := client.GetKios(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(k)
	}
}

func (d *Dashboard) CreateKiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.KiosRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		k, err := client.CreateKios(ctx, req)
		if err != nil {
			return err
		}
		d.record(c, audit.Entry{
			KiosID:      &k.ID,
			EntityType:  "kios",
			EntityID:    k.ID,
			Action:      models.ActionCreate,
			Description: "kios " + k.Name,
			After:       k,
		})
		return c.Status(fiber.StatusCreated).JSON(k)
	}
}

func (d *Dashboard) UpdateKiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var req models.KiosRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		before, err := client.GetKios(ctx, id)
		if err != nil {
			return err
		}
		k, err := client.UpdateKios(ctx, id, req)
		if err != nil {
			return err
		}
		d.hub.Invalidate(id)
		d.record(c, audit.Entry{
			KiosID:      &id,
			EntityType:  "kios",
			EntityID:    id,
			Action:      models.ActionUpdate,
			Description: "kios " + k.Name,
			Before:      before,
			After:       k,
		})
		return c.JSON(k)
	}
}

func (d *Dashboard) DeleteKiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		before, err := client.GetKios(ctx, id)
		if err != nil {
			return err
		}
		if err := client.DeleteKios(ctx, id); err != nil {
			return err
		}
		d.hub.Invalidate(id)
		d.record(c, audit.Entry{
			KiosID:      &id,
			EntityType:  "kios",
			EntityID:    id,
			Action:      models.ActionDelete,
			Description: "kios " + before.Name,
			Before:      before,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ===== Menus =====

func menuFilter(c *fiber.Ctx) (models.MenuFilter, error) {
	f := models.MenuFilter{
		Category: models.MenuCategory(c.Query("category")),
		Search:   c.Query("search"),
	}
	if f.Category != "" && !f.Category.Valid() {
		return f, fiber.NewError(fiber.StatusBadRequest, "unknown category "+string(f.Category))
	}
	if raw := c.Query("available"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "invalid available")
		}
		f.Available = &b
	}
	return f, nil
}

// GET /dashboard/kios/:id/menus?category=&available=&search=
func (d *Dashboard) ListMenusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := ensureKiosAccess(c, kiosID); err != nil {
			return err
		}
		f, err := menuFilter(c)
		if err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		menus, err := client.ListMenus(ctx, kiosID, f)
		if err != nil {
			return err
		}
		return c.JSON(menus)
	}
}

func (d *Dashboard) CreateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := ensureKiosAccess(c, kiosID); err != nil {
			return err
		}
		var req models.MenuRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		m, err := client.CreateMenu(ctx, kiosID, req)
		if err != nil {
			return err
		}
		d.record(c, audit.Entry{
			KiosID:      &kiosID,
			EntityType:  "menu",
			EntityID:    m.ID,
			Action:      models.ActionCreate,
			Description: fmt.Sprintf("menu %s (%d)", m.Name, m.Price),
			After:       m,
		})
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// menuForEdit loads a menu and checks the caller may change it.
func (d *Dashboard) menuForEdit(ctx context.Context, c *fiber.Ctx, client *api.Client) (models.Menu, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return models.Menu{}, err
	}
	m, err := client.GetMenu(ctx, id)
	if err != nil {
		return models.Menu{}, err
	}
	if err := ensureKiosAccess(c, m.KiosID); err != nil {
		return models.Menu{}, err
	}
	return m, nil
}

func (d *Dashboard) UpdateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.MenuUpdate
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		before, err := d.menuForEdit(ctx, c, client)
		if err != nil {
			return err
		}
		m, err := client.UpdateMenu(ctx, before.ID, req)
		if err != nil {
			return err
		}
		d.record(c, audit.Entry{
			KiosID:      &before.KiosID,
			EntityType:  "menu",
			EntityID:    m.ID,
			Action:      models.ActionUpdate,
			Description: "menu " + m.Name,
			Before:      before,
			After:       m,
		})
		return c.JSON(m)
	}
}

func (d *Dashboard) ToggleMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, ctx := d.callContext(c)
		before, err := d.menuForEdit(ctx, c, client)
		if err != nil {
			return err
		}
		m, err := client.ToggleMenuAvailability(ctx, before.ID)
		if err != nil {
			return err
		}
		state := "unavailable"
		if m.IsAvailable {
			state = "available"
		}
		d.record(c, audit.Entry{
			KiosID:      &before.KiosID,
			EntityType:  "menu",
			EntityID:    m.ID,
			Action:      models.ActionUpdate,
			Description: fmt.Sprintf("menu %s marked %s", m.Name, state),
			Before:      fiber.Map{"is_available": before.IsAvailable},
			After:       fiber.Map{"is_available": m.IsAvailable},
		})
		return c.JSON(m)
	}
}

func (d *Dashboard) DeleteMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client, ctx := d.callContext(c)
		before, err := d.menuForEdit(ctx, c, client)
		if err != nil {
			return err
		}
		if err := client.DeleteMenu(ctx, before.ID); err != nil {
			return err
		}
		d.record(c, audit.Entry{
			KiosID:      &before.KiosID,
			EntityType:  "menu",
			EntityID:    before.ID,
			Action:      models.ActionDelete,
			Description: "menu " + before.Name,
			Before:      before,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ===== Orders =====

// POST /dashboard/kios/:id/orders
func (d *Dashboard) CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := ensureKiosAccess(c, kiosID); err != nil {
			return err
		}
		var req models.CreateOrderRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, ctx := d.callContext(c)
		menus, err := client.ListMenus(ctx, kiosID, models.MenuFilter{})
		if err != nil {
			return err
		}

		basket := cart.New(kiosID)
		basket.CustomerName = req.CustomerName
		basket.Notes = req.Notes
		if err := basket.Fill(menus, req.Items); err != nil {
			return err
		}
		o, err := d.orderService(client).Create(ctx, actor(c), basket)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

type statusUpdate struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// PUT /dashboard/orders/:id/status
// An empty status advances the order one step.
func (d *Dashboard) UpdateOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body statusUpdate
		if err := parseBody(c, &body); err != nil {
			return err
		}
		if body.Status != "" && !body.Status.Valid() {
			return fmt.Errorf("%w: %q", orderflow.ErrUnknownStatus, body.Status)
		}
		client, ctx := d.callContext(c)
		current, err := client.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureKiosAccess(c, current.KiosID); err != nil {
			return err
		}

		svc := d.orderService(client)
		var o models.Order
		if body.Status == "" {
			o, err = svc.AdvanceFrom(ctx, actor(c), current, body.PaymentMethod)
		} else {
			o, err = svc.UpdateStatusFrom(ctx, actor(c), current, body.Status, body.PaymentMethod)
		}
		if err != nil {
			return err
		}
		role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		return c.JSON(present.Card(o, present.ForRole(role), d.machine))
	}
}
