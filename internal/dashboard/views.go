package dashboard

import (
	"context"
	"time"

	"foodcourt-dashboard/internal/aggregate"
	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/auth"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"
	"foodcourt-dashboard/internal/present"
	"foodcourt-dashboard/internal/queue"
	"foodcourt-dashboard/internal/report"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type CashierView struct {
	Status    models.OrderStatus  `json:"status,omitempty"`
	Date      string              `json:"date,omitempty"`
	Summary   report.Summary      `json:"summary"`
	Orders    []present.OrderCard `json:"orders"`
	Skipped   []aggregate.Skipped `json:"skipped,omitempty"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// BoardView is a queue board rendered as cards.
type BoardView struct {
	Waiting   []present.OrderCard `json:"waiting"`
	Preparing []present.OrderCard `json:"preparing"`
	Ready     []present.OrderCard `json:"ready"`
	Serving   *present.OrderCard  `json:"serving"`
	Count     int                 `json:"count"`
}

type KiosView struct {
	KiosID         uint                `json:"kios_id"`
	Orders         []present.OrderCard `json:"orders"`
	Board          BoardView           `json:"board"`
	Summary        report.Summary      `json:"summary"`
	CompletedToday int                 `json:"completed_today"`
	FetchedAt      time.Time           `json:"fetched_at"`
}

type MonitorView struct {
	KiosID    uint      `json:"kios_id"`
	KiosName  string    `json:"kios_name,omitempty"`
	Board     BoardView `json:"board"`
	FetchedAt time.Time `json:"fetched_at"`
}

func renderBoard(b queue.Board, caps present.Capabilities, m orderflow.Machine) BoardView {
	v := BoardView{
		Waiting:   present.Cards(b.Waiting, caps, m),
		Preparing: present.Cards(b.Preparing, caps, m),
		Ready:     present.Cards(b.Ready, caps, m),
		Count:     b.Len(),
	}
	if b.Serving != nil {
		card := present.Card(*b.Serving, caps, m)
		v.Serving = &card
	}
	return v
}

func (d *Dashboard) cashierView(res aggregate.Result, status models.OrderStatus, date string, at time.Time) CashierView {
	return CashierView{
		Status:    status,
		Date:      date,
		Summary:   report.Summarize(res.Orders, at),
		Orders:    present.Cards(report.FilterStatus(res.Orders, status), present.CashierView, d.machine),
		Skipped:   res.Skipped,
		FetchedAt: at,
	}
}

func statusParam(c *fiber.Ctx) (models.OrderStatus, error) {
	s := models.OrderStatus(c.Query("status"))
	if s == "" || s == "all" {
		return "", nil
	}
	if !s.Valid() {
		return "", fiber.NewError(fiber.StatusBadRequest, "unknown status "+string(s))
	}
	return s, nil
}

// dateParam reads ?date=YYYY-MM-DD; empty means every day.
func dateParam(c *fiber.Ctx) (string, error) {
	raw := c.Query("date")
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return raw, nil
}

// cashierFilter reads the cashier tabs. Status is applied locally so the
// summary still counts every status; date and kios_id go to the backend.
func cashierFilter(c *fiber.Ctx) (status models.OrderStatus, f models.OrderFilter, err error) {
	if status, err = statusParam(c); err != nil {
		return "", f, err
	}
	if f.Date, err = dateParam(c); err != nil {
		return "", f, err
	}
	if raw := c.Query("kios_id"); raw != "" {
		id := c.QueryInt("kios_id", 0)
		if id <= 0 {
			return "", f, fiber.NewError(fiber.StatusBadRequest, "invalid kios_id")
		}
		f.KiosID = uint(id)
	}
	return status, f, nil
}

// GET /dashboard/cashier?status=&date=&kios_id=
func (d *Dashboard) CashierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, f, err := cashierFilter(c)
		if err != nil {
			return err
		}
		client, _ := d.requestContext(c)
		ctx := api.WithRequestID(c.UserContext(), logging.RequestID(c))

		res, err := d.aggregator(client).AllOrders(ctx, f)
		if err != nil {
			return err
		}
		return c.JSON(d.cashierView(res, status, f.Date, d.now()))
	}
}

type kiosData struct {
	orders []models.Order
	queue  []models.Order
}

func fetchKios(ctx context.Context, client *api.Client, kiosID uint) (kiosData, error) {
	var out kiosData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.orders, err = client.ListOrders(gctx, kiosID, models.OrderFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		out.queue, err = client.Queue(gctx, kiosID)
		return err
	})
	return out, g.Wait()
}

func (d *Dashboard) kiosView(kiosID uint, ordersList, queued []models.Order, at time.Time) KiosView {
	aggregate.SortNewestFirst(ordersList)
	sum := report.Summarize(ordersList, at)
	return KiosView{
		KiosID:         kiosID,
		Orders:         present.Cards(ordersList, present.KiosView, d.machine),
		Board:          renderBoard(queue.Project(queued), present.KiosView, d.machine),
		Summary:        sum,
		CompletedToday: sum.CompletedToday,
		FetchedAt:      at,
	}
}

func ownKios(c *fiber.Ctx) (uint, error) {
	id := auth.OwnKios(c)
	if id == 0 {
		return 0, fiber.NewError(fiber.StatusForbidden, "no kios assigned to this account")
	}
	return id, nil
}

// GET /dashboard/kios
func (d *Dashboard) KiosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := ownKios(c)
		if err != nil {
			return err
		}
		client, _ := d.requestContext(c)
		data, err := fetchKios(api.WithRequestID(c.UserContext(), logging.RequestID(c)), client, kiosID)
		if err != nil {
			return err
		}
		return c.JSON(d.kiosView(kiosID, data.orders, data.queue, d.now()))
	}
}

func (d *Dashboard) monitorView(kiosID uint, name string, queued []models.Order, at time.Time) MonitorView {
	return MonitorView{
		KiosID:    kiosID,
		KiosName:  name,
		Board:     renderBoard(queue.Project(queued), present.MonitorView, d.machine),
		FetchedAt: at,
	}
}

// GET /monitor/:kiosId
func (d *Dashboard) MonitorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := paramID(c, "kiosId")
		if err != nil {
			return err
		}
		client, _ := d.requestContext(c)
		ctx := api.WithRequestID(c.UserContext(), logging.RequestID(c))

		k, err := client.GetKios(ctx, kiosID)
		if err != nil {
			return err
		}
		queued, err := client.Queue(ctx, kiosID)
		if err != nil {
			return err
		}
		return c.JSON(d.monitorView(kiosID, k.Name, queued, d.now()))
	}
}
