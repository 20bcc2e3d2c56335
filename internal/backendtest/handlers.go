package backendtest

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx) (uint, error) {
	n, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(n), nil
}

func (b *Backend) login(c *fiber.Ctx) error {
	var body models.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	b.mu.Lock()
	acc, found := b.accounts[body.Username]
	b.mu.Unlock()
	if !found || acc.password != body.Password {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
	}
	token, err := sign(acc.user.ID, b.now().Add(24*time.Hour))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token, "user": acc.user})
}

func (b *Backend) me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(uint)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == uid {
			return ok(c, fiber.StatusOK, acc.user)
		}
	}
	return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
}

func (b *Backend) listKios(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Kios{}
	for _, k := range b.kios {
		out = append(out, *k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return ok(c, fiber.StatusOK, out)
}

func (b *Backend) getKios(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	k, found := b.kios[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "kios not found")
	}
	return ok(c, fiber.StatusOK, k)
}

func (b *Backend) createKios(c *fiber.Ctx) error {
	var body models.KiosRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(body.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	k := b.AddKios(body.Name)
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := b.kios[k.ID]
	stored.Description = body.Description
	stored.Location = body.Location
	if body.IsActive != nil {
		stored.IsActive = *body.IsActive
	}
	return ok(c, fiber.StatusCreated, stored)
}

func (b *Backend) updateKios(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var body models.KiosRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	k, found := b.kios[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "kios not found")
	}
	k.Name = body.Name
	k.Description = body.Description
	k.Location = body.Location
	if body.IsActive != nil {
		k.IsActive = *body.IsActive
	}
	k.UpdatedAt = b.now()
	return ok(c, fiber.StatusOK, k)
}

func (b *Backend) deleteKios(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	k, found := b.kios[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "kios not found")
	}
	if k.MenuCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "kios still has menus",
			"details": strconv.Itoa(k.MenuCount) + " menus must be removed first",
		})
	}
	delete(b.kios, id)
	return ok(c, fiber.StatusOK, nil)
}

func (b *Backend) listMenus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	category := c.Query("category")
	available := c.Query("available")
	search := strings.ToLower(c.Query("search"))

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Menu{}
	for _, m := range b.menus {
		if m.KiosID != id {
			continue
		}
		if category != "" && string(m.Category) != category {
			continue
		}
		if available != "" && strconv.FormatBool(m.IsAvailable) != available {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return ok(c, fiber.StatusOK, out)
}

func (b *Backend) createMenu(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var body models.MenuRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	b.mu.Lock()
	_, found := b.kios[id]
	b.mu.Unlock()
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "kios not found")
	}
	available := body.IsAvailable == nil || *body.IsAvailable
	m := b.AddMenu(id, body.Name, body.Price, available)
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := b.menus[m.ID]
	stored.Description = body.Description
	stored.Category = body.Category
	stored.ImageURL = body.ImageURL
	return ok(c, fiber.StatusCreated, stored)
}

func (b *Backend) getMenu(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, found := b.menus[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "menu not found")
	}
	return ok(c, fiber.StatusOK, m)
}

func (b *Backend) updateMenu(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var body models.MenuUpdate
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, found := b.menus[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "menu not found")
	}
	if body.Name != nil {
		m.Name = *body.Name
	}
	if body.Description != nil {
		m.Description = *body.Description
	}
	if body.Price != nil {
		m.Price = *body.Price
	}
	if body.Category != nil {
		m.Category = *body.Category
	}
	if body.ImageURL != nil {
		m.ImageURL = *body.ImageURL
	}
	if body.IsAvailable != nil {
		m.IsAvailable = *body.IsAvailable
	}
	m.UpdatedAt = b.now()
	return ok(c, fiber.StatusOK, m)
}

func (b *Backend) deleteMenu(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, found := b.menus[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "menu not found")
	}
	if k, found := b.kios[m.KiosID]; found {
		k.MenuCount--
	}
	delete(b.menus, id)
	return ok(c, fiber.StatusOK, nil)
}

func (b *Backend) listOrders(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	status := c.Query("status")
	date := c.Query("date")

	b.mu.Lock()
	defer b.mu.Unlock()
	if code, failing := b.failKios[id]; failing {
		return c.Status(code).JSON(fiber.Map{"error": "orders unavailable", "details": "injected failure"})
	}
	out := sortedOrders(b.orders, func(o *models.Order) bool {
		if o.KiosID != id {
			return false
		}
		if status != "" && string(o.Status) != status {
			return false
		}
		if date != "" && o.CreatedAt.Format("2006-01-02") != date {
			return false
		}
		return true
	})
	return ok(c, fiber.StatusOK, out)
}

func (b *Backend) queue(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := sortedOrders(b.orders, func(o *models.Order) bool {
		if o.KiosID != id {
			return false
		}
		return o.Status == models.StatusPaid || o.Status == models.StatusPreparing || o.Status == models.StatusReady
	})
	return ok(c, fiber.StatusOK, out)
}

func (b *Backend) getOrder(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	return ok(c, fiber.StatusOK, o)
}

func (b *Backend) createOrder(c *fiber.Ctx) error {
	kiosID, err := paramID(c)
	if err != nil {
		return err
	}
	var body models.CreateOrderRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	uid, _ := c.Locals("user_id").(uint)

	b.mu.Lock()
	defer b.mu.Unlock()
	k, found := b.kios[kiosID]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "kios not found")
	}
	if len(body.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "items are required")
	}
	now := b.now()
	o := &models.Order{
		ID:           b.id(),
		QueueNumber:  b.queueNumber(kiosID),
		KiosID:       kiosID,
		KiosName:     k.Name,
		CustomerName: body.CustomerName,
		Status:       models.StatusPending,
		Notes:        body.Notes,
		CreatedBy:    uid,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, it := range body.Items {
		m, found := b.menus[it.MenuID]
		if !found || m.KiosID != kiosID || !m.IsAvailable {
			return fiber.NewError(fiber.StatusBadRequest, "menu not orderable")
		}
		item := models.OrderItem{
			ID:       b.id(),
			MenuID:   m.ID,
			MenuName: m.Name,
			Quantity: it.Quantity,
			Price:    m.Price,
			Subtotal: int64(it.Quantity) * m.Price,
			Notes:    it.Notes,
		}
		o.OrderItems = append(o.OrderItems, item)
		o.TotalAmount += item.Subtotal
	}
	b.orders[o.ID] = o
	k.OrderCount++
	return ok(c, fiber.StatusCreated, o)
}

func (b *Backend) updateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var body models.UpdateOrderStatusRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[id]
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	if _, err := orderflow.NewMachine(models.PaymentCash).Transition(o.Status, body.Status, body.PaymentMethod); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if body.Status == models.StatusPaid && body.PaymentMethod == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment_method is required")
	}

	now := b.now()
	switch body.Status {
	case models.StatusPaid:
		o.PaidAt = &now
		o.PaymentMethod = body.PaymentMethod
	case models.StatusPreparing:
		o.PreparedAt = &now
	case models.StatusReady:
		o.ReadyAt = &now
	case models.StatusCompleted:
		o.CompletedAt = &now
	}
	o.Status = body.Status
	o.UpdatedAt = now
	return ok(c, fiber.StatusOK, o)
}
