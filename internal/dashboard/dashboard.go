// Package dashboard serves the operator views: the cashier's cross-kios
// board, the kios owner's preparation board and the queue monitor, plus the
// mutations behind their buttons. Views are JSON; open views are kept fresh
// over server-sent events.
package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"foodcourt-dashboard/internal/aggregate"
	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/audit"
	"foodcourt-dashboard/internal/auth"
	"foodcourt-dashboard/internal/config"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/orderflow"
	"foodcourt-dashboard/internal/orders"
	"foodcourt-dashboard/internal/poller"
	"foodcourt-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Hub        *poller.Hub
	Actions    audit.Log
	HTTPClient *http.Client
}

type Dashboard struct {
	cfg     *config.Config
	log     *logrus.Logger
	hub     *poller.Hub
	actions audit.Log
	http    *http.Client
	machine orderflow.Machine
	cookies session.CookieConfig
	now     func() time.Time

	// heartbeat keeps idle event streams from being cut by proxies.
	heartbeat time.Duration
}

func New(d Deps) *Dashboard {
	if d.Actions == nil {
		d.Actions = audit.Nop{}
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{}
	}
	return &Dashboard{
		cfg:       d.Config,
		log:       d.Logger,
		hub:       d.Hub,
		actions:   d.Actions,
		http:      d.HTTPClient,
		machine:   orderflow.NewMachine(models.PaymentMethod(d.Config.DefaultPaymentMethod)),
		cookies:   session.CookieConfig{Secure: d.Config.CookieSecure, MaxDays: d.Config.CookieMaxDays},
		now:       time.Now,
		heartbeat: 15 * time.Second,
	}
}

// Routes mounts every dashboard route on r.
func (d *Dashboard) Routes(r fiber.Router) {
	r.Get("/healthz", d.HealthHandler())

	r.Use(auth.SessionMiddleware())
	r.Get(auth.LoginPath, auth.LoginPageHandler())
	r.Post(auth.LoginPath, auth.LoginHandler(d.RequestClient, d.cookies))
	r.Post("/logout", auth.LogoutHandler())

	dash := r.Group("/dashboard", auth.NavigationGate())
	dash.Get("/me", auth.MeHandler(d.RequestClient, d.cookies))

	cashier := dash.Group("/cashier", auth.RequireRole(models.RoleCashier))
	cashier.Get("/", d.CashierHandler())
	cashier.Get("/stream", d.CashierStreamHandler())
	cashier.Get("/export.xlsx", d.ExportHandler())
	cashier.Get("/revenue-chart", d.RevenueChartHandler())
	cashier.Get("/activity", audit.ListHandler(d.actions))
	cashier.Get("/kios", d.ListKiosHandler())
	cashier.Post("/kios", d.CreateKiosHandler())
	cashier.Get("/kios/:id", d.GetKiosHandler())
	cashier.Put("/kios/:id", d.UpdateKiosHandler())
	cashier.Delete("/kios/:id", d.DeleteKiosHandler())

	owner := dash.Group("/kios")
	owner.Get("/", auth.RequireRole(models.RoleKios), d.KiosHandler())
	owner.Get("/stream", auth.RequireRole(models.RoleKios), d.KiosStreamHandler())
	owner.Get("/:id/menus", d.ListMenusHandler())
	owner.Post("/:id/menus", d.CreateMenuHandler())
	owner.Post("/:id/orders", d.CreateOrderHandler())

	dash.Put("/menus/:id", d.UpdateMenuHandler())
	dash.Delete("/menus/:id", d.DeleteMenuHandler())
	dash.Post("/menus/:id/toggle", d.ToggleMenuHandler())
	dash.Put("/orders/:id/status", d.UpdateOrderStatusHandler())

	monitor := r.Group("/monitor", auth.NavigationGate())
	monitor.Get("/:kiosId", d.MonitorHandler())
	monitor.Get("/:kiosId/stream", d.MonitorStreamHandler())
}

func (d *Dashboard) HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "open_views": d.hub.Open()})
	}
}

func (d *Dashboard) entry(component string) *logrus.Entry {
	return d.log.WithField("component", component)
}

// client builds a backend client for s with no tie to any request, for
// pollers that outlive the request that opened them.
func (d *Dashboard) client(s *session.Store, opts ...api.Option) *api.Client {
	base := []api.Option{
		api.WithHTTPClient(d.http),
		api.WithLogger(d.log.WithField("session", sessionID(s.Token()))),
		api.WithTimeout(d.cfg.RequestTimeout),
	}
	return api.New(d.cfg.BackendURL, s, append(base, opts...)...)
}

// RequestClient builds a client whose 401 handling also clears the
// request's cookies.
func (d *Dashboard) RequestClient(c *fiber.Ctx, s *session.Store) *api.Client {
	return d.client(s, api.OnUnauthorized(func() { session.ClearCookies(c) }))
}

func (d *Dashboard) requestContext(c *fiber.Ctx) (*api.Client, *session.Store) {
	s := auth.Session(c)
	return d.RequestClient(c, s), s
}

func (d *Dashboard) aggregator(src aggregate.OrderSource) *aggregate.Aggregator {
	return aggregate.New(src, aggregate.Policy(d.cfg.AggregatePolicy), 0, d.entry("aggregate"))
}

func (d *Dashboard) orderService(client *api.Client) *orders.Service {
	return orders.NewService(client, d.hub, d.machine, d.actions, d.entry("orders"))
}

func actor(c *fiber.Ctx) orders.Actor {
	a := orders.Actor{RequestID: logging.RequestID(c)}
	if u := auth.Session(c).User(); u != nil {
		a.User = *u
	}
	return a
}

// sessionID keys per-session views without keeping the token itself around.
func sessionID(token string) string {
	if token == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(n), nil
}

// ensureKiosAccess keeps a kios owner on their own kios; cashiers see all.
func ensureKiosAccess(c *fiber.Ctx, kiosID uint) error {
	role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
	if role == models.RoleKios && auth.OwnKios(c) != kiosID {
		return fiber.NewError(fiber.StatusForbidden, "not your kios")
	}
	return nil
}
