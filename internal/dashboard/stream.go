package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"foodcourt-dashboard/internal/aggregate"
	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/auth"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/poller"
	"foodcourt-dashboard/internal/present"
	"foodcourt-dashboard/internal/queue"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	EventOrders       = "orders"
	EventQueue        = "queue"
	EventUnauthorized = "unauthorized"
)

// Frame is the data of one stream event. After a failed fetch View still
// holds the last good data and Stale is set.
type Frame struct {
	Seq       uint64 `json:"seq"`
	Stale     bool   `json:"stale,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	View      any    `json:"view,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

type sseEvent struct {
	name  string
	frame Frame
}

func toFrame[T any](snap poller.Snapshot[T], render func(T, time.Time) any) Frame {
	f := Frame{Seq: snap.Seq}
	if snap.HasData {
		f.View = render(snap.Data, snap.FetchedAt)
	}
	if snap.Err != nil {
		f.Stale = snap.HasData
		f.Error = snap.Err.Error()
		f.Retryable = api.Retryable(snap.Err)
	}
	return f
}

// follow forwards p's snapshots as events named name until the
// subscription ends or done is closed.
func follow[T any](p *poller.Poller[T], name, redirect string, render func(T, time.Time) any, out chan<- sseEvent, done <-chan struct{}, wg *sync.WaitGroup) func() {
	ch, cancel := p.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for snap := range ch {
			ev := sseEvent{name: name, frame: toFrame(snap, render)}
			if api.IsUnauthorized(snap.Err) {
				ev = sseEvent{name: EventUnauthorized, frame: Frame{Seq: snap.Seq, Error: "session expired", Redirect: redirect}}
			}
			select {
			case out <- ev:
			case <-done:
				return
			}
		}
	}()
	return cancel
}

// serveStream writes events as server-sent events until the client goes
// away, the session is rejected, the server shuts down or the views are
// closed. The views are released when it ends. A gone client is only noticed
// on a write, so idle streams are pinged at least once per poll interval
// and a closed tab costs at most one more fetch.
func (d *Dashboard) serveStream(c *fiber.Ctx, view string, every time.Duration, open func(out chan<- sseEvent, done <-chan struct{}, wg *sync.WaitGroup) ([]func(), error)) error {
	out := make(chan sseEvent)
	done := make(chan struct{})
	var wg sync.WaitGroup

	cleanup, err := open(out, done, &wg)
	if err != nil {
		close(done)
		for _, fn := range cleanup {
			fn()
		}
		return err
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	log := d.log.WithFields(logrus.Fields{"component": "stream", "view": view})
	heartbeat := d.heartbeat
	if every > 0 && every < heartbeat {
		heartbeat = every
	}
	shutdown := c.Context().Done()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			close(done)
			for _, fn := range cleanup {
				fn()
			}
			log.Debug("stream closed")
		}()
		log.Debug("stream opened")

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-out:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
				if ev.name == EventUnauthorized {
					return
				}
			case <-shutdown:
				return
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev sseEvent) error {
	data, err := json.Marshal(ev.frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", ev.name, ev.frame.Seq, data); err != nil {
		return err
	}
	return w.Flush()
}

// holder collects cleanup funcs while views are opened.
type holder struct {
	cleanup []func()
}

func (h *holder) add(fns ...func()) { h.cleanup = append(h.cleanup, fns...) }

func (d *Dashboard) streamClient(c *fiber.Ctx) (*api.Client, string) {
	s := auth.Session(c)
	return d.client(s), sessionID(s.Token())
}

func (d *Dashboard) ordersPoller(client *api.Client, kiosID uint) func() *poller.Poller[[]models.Order] {
	return func() *poller.Poller[[]models.Order] {
		return poller.New(fmt.Sprintf("orders/%d", kiosID), d.cfg.Polling.Orders, func(ctx context.Context) ([]models.Order, error) {
			return client.ListOrders(ctx, kiosID, models.OrderFilter{})
		}, d.entry("poller"))
	}
}

func (d *Dashboard) queuePoller(client *api.Client, kiosID uint, every time.Duration) func() *poller.Poller[[]models.Order] {
	return func() *poller.Poller[[]models.Order] {
		return poller.New(fmt.Sprintf("queue/%d", kiosID), every, func(ctx context.Context) ([]models.Order, error) {
			return client.Queue(ctx, kiosID)
		}, d.entry("poller"))
	}
}

// filterVariant names the backend filter of an aggregate view, so views of
// different days or kios get their own poller.
func filterVariant(f models.OrderFilter) string {
	v := f.Values()
	if f.KiosID != 0 {
		v.Set("kios_id", strconv.FormatUint(uint64(f.KiosID), 10))
	}
	return v.Encode()
}

// GET /dashboard/cashier/stream?status=&date=&kios_id=
func (d *Dashboard) CashierStreamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, f, err := cashierFilter(c)
		if err != nil {
			return err
		}
		client, sid := d.streamClient(c)
		redirect := auth.LoginRedirect("/dashboard/cashier")
		agg := d.aggregator(client)
		key := poller.ViewKey{Session: sid, Topic: poller.TopicOrders, Variant: filterVariant(f)}

		return d.serveStream(c, "cashier", d.cfg.Polling.Orders, func(out chan<- sseEvent, done <-chan struct{}, wg *sync.WaitGroup) ([]func(), error) {
			var h holder
			p, release, err := poller.Acquire(d.hub, key, func() *poller.Poller[aggregate.Result] {
				name := "orders/all"
				if key.Variant != "" {
					name += "?" + key.Variant
				}
				return poller.New(name, d.cfg.Polling.Orders, func(ctx context.Context) (aggregate.Result, error) {
					return agg.AllOrders(ctx, f)
				}, d.entry("poller"))
			})
			if err != nil {
				return h.cleanup, err
			}
			h.add(release)
			render := func(res aggregate.Result, at time.Time) any { return d.cashierView(res, status, f.Date, at) }
			h.add(follow(p, EventOrders, redirect, render, out, done, wg))
			return h.cleanup, nil
		})
	}
}

// GET /dashboard/kios/stream
func (d *Dashboard) KiosStreamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := ownKios(c)
		if err != nil {
			return err
		}
		client, sid := d.streamClient(c)
		redirect := auth.LoginRedirect("/dashboard/kios")

		return d.serveStream(c, "kios", min(d.cfg.Polling.Orders, d.cfg.Polling.KiosQueue), func(out chan<- sseEvent, done <-chan struct{}, wg *sync.WaitGroup) ([]func(), error) {
			var h holder
			ordersView, release, err := poller.Acquire(d.hub, poller.ViewKey{Session: sid, Topic: poller.TopicOrders, KiosID: kiosID}, d.ordersPoller(client, kiosID))
			if err != nil {
				return h.cleanup, err
			}
			h.add(release)
			queueView, release, err := poller.Acquire(d.hub, poller.ViewKey{Session: sid, Topic: poller.TopicQueue, KiosID: kiosID}, d.queuePoller(client, kiosID, d.cfg.Polling.KiosQueue))
			if err != nil {
				return h.cleanup, err
			}
			h.add(release)

			renderOrders := func(list []models.Order, at time.Time) any {
				v := d.kiosView(kiosID, append([]models.Order(nil), list...), nil, at)
				return fiber.Map{"orders": v.Orders, "summary": v.Summary, "completed_today": v.CompletedToday, "fetched_at": at}
			}
			renderQueue := func(list []models.Order, at time.Time) any {
				return renderBoard(queue.Project(list), present.KiosView, d.machine)
			}
			h.add(follow(ordersView, EventOrders, redirect, renderOrders, out, done, wg))
			h.add(follow(queueView, EventQueue, redirect, renderQueue, out, done, wg))
			return h.cleanup, nil
		})
	}
}

// GET /monitor/:kiosId/stream
func (d *Dashboard) MonitorStreamHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kiosID, err := paramID(c, "kiosId")
		if err != nil {
			return err
		}
		client, sid := d.streamClient(c)
		redirect := auth.LoginRedirect(c.Path())

		return d.serveStream(c, "monitor", d.cfg.Polling.MonitorQueue, func(out chan<- sseEvent, done <-chan struct{}, wg *sync.WaitGroup) ([]func(), error) {
			var h holder
			// Monitor views poll faster than the owner's board, so they get
			// their own key.
			key := poller.ViewKey{Session: sid, Topic: poller.TopicQueue, KiosID: kiosID, Variant: "monitor"}
			p, release, err := poller.Acquire(d.hub, key, d.queuePoller(client, kiosID, d.cfg.Polling.MonitorQueue))
			if err != nil {
				return h.cleanup, err
			}
			h.add(release)
			render := func(list []models.Order, at time.Time) any { return d.monitorView(kiosID, "", list, at) }
			h.add(follow(p, EventQueue, redirect, render, out, done, wg))
			return h.cleanup, nil
		})
	}
}
