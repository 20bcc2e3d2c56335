package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"foodcourt-dashboard/internal/audit"
	"foodcourt-dashboard/internal/backendtest"
	"foodcourt-dashboard/internal/config"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/models"
	"foodcourt-dashboard/internal/poller"
	"foodcourt-dashboard/internal/present"
	"foodcourt-dashboard/internal/report"
	"foodcourt-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	backend *backendtest.Backend
	app     *fiber.App
	dash    *Dashboard
	hub     *poller.Hub
	actions *audit.Memory
	bakso   models.Kios
	esTeh   models.Kios
	cashier models.User
	owner   models.User
}

func setup(t *testing.T, tweak ...func(*config.Config)) *fixture {
	t.Helper()
	b := backendtest.Start(t)
	bakso := b.AddKios("Bakso Pak Min")
	esTeh := b.AddKios("Es Teh Segar")
	cashier := b.AddUser("kasir", "secret", models.User{FullName: "Sari", Role: models.RoleCashier})
	owner := b.AddUser("bakso", "secret", models.User{FullName: "Pak Min", Role: models.RoleKios, KiosID: &bakso.ID})

	cfg := config.Defaults()
	cfg.BackendURL = b.URL
	cfg.RequestTimeout = 2 * time.Second
	cfg.Polling = config.Polling{
		Orders:       50 * time.Millisecond,
		KiosQueue:    50 * time.Millisecond,
		MonitorQueue: 50 * time.Millisecond,
	}
	for _, fn := range tweak {
		fn(cfg)
	}

	log := logging.Discard()
	ctx, cancel := context.WithCancel(context.Background())
	hub := poller.NewHub(ctx, log.WithField("test", t.Name()))
	t.Cleanup(func() {
		hub.Close()
		cancel()
	})
	actions := audit.NewMemory(0)

	d := New(Deps{Config: cfg, Logger: log, Hub: hub, Actions: actions})
	d.heartbeat = 20 * time.Millisecond

	app := fiber.New(fiber.Config{DisableStartupMessage: true, ErrorHandler: ErrorHandler(log)})
	app.Use(logging.Middleware(log))
	d.Routes(app)

	return &fixture{
		backend: b, app: app, dash: d, hub: hub, actions: actions,
		bakso: bakso, esTeh: esTeh, cashier: cashier, owner: owner,
	}
}

// cookies returns the session cookies a browser would send for u.
func (f *fixture) cookies(t *testing.T, u models.User) []*http.Cookie {
	t.Helper()
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	return []*http.Cookie{
		{Name: session.TokenCookie, Value: f.backend.Token(u.ID)},
		{Name: session.UserCookie, Value: url.QueryEscape(string(raw))},
	}
}

func (f *fixture) request(t *testing.T, method, target string, body any, as *models.User) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if as != nil {
		for _, c := range f.cookies(t, *as) {
			req.AddCookie(c)
		}
	}
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func setCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func at(h, m int) time.Time {
	return time.Date(2026, 10, 15, h, m, 0, 0, time.UTC)
}

func (f *fixture) seedOrders() {
	ready := at(9, 40)
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusPending, TotalAmount: 15000, CreatedAt: at(10, 0)})
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusPaid, TotalAmount: 30000, CreatedAt: at(9, 50), PaymentMethod: models.PaymentCash})
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusReady, TotalAmount: 12000, CreatedAt: at(9, 30), ReadyAt: &ready})
	f.backend.AddOrder(models.Order{KiosID: f.esTeh.ID, Status: models.StatusPaid, TotalAmount: 5000, CreatedAt: at(9, 55), PaymentMethod: models.PaymentCard})
	f.backend.AddOrder(models.Order{KiosID: f.esTeh.ID, Status: models.StatusCancelled, TotalAmount: 8000, CreatedAt: at(9, 0)})
}

func TestHealth(t *testing.T) {
	f := setup(t)
	resp := f.request(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGateSendsAnonymousVisitorsToLogin(t *testing.T) {
	f := setup(t)
	for _, path := range []string{"/dashboard/cashier", "/monitor/3"} {
		resp := f.request(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login?redirect="+url.QueryEscape(path), resp.Header.Get(fiber.HeaderLocation))
	}
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/kios/"))
}

func TestLoginPage(t *testing.T) {
	f := setup(t)

	t.Run("anonymous gets the login screen", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/login?redirect=/dashboard/cashier", nil, nil)
		var body loginScreenBody
		decode(t, resp, &body)
		assert.True(t, body.Login)
		assert.Equal(t, "/dashboard/cashier", body.Redirect)
	})

	t.Run("signed in with redirect goes to the dashboard", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/login?redirect=/monitor/1", nil, &f.owner)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/dashboard/kios", resp.Header.Get(fiber.HeaderLocation))
	})

	t.Run("signed in without redirect still sees the screen", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/login", nil, &f.cashier)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

type loginScreenBody struct {
	Login    bool   `json:"login"`
	Redirect string `json:"redirect"`
}

func TestLoginWritesSessionCookies(t *testing.T) {
	f := setup(t)

	resp := f.request(t, http.MethodPost, "/login", models.LoginRequest{Username: "kasir", Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := setCookie(resp, session.TokenCookie)
	require.NotNil(t, token)
	assert.NotEmpty(t, token.Value)
	assert.False(t, token.HttpOnly)
	assert.NotNil(t, setCookie(resp, session.UserCookie))

	var body struct {
		User     models.User `json:"user"`
		Redirect string      `json:"redirect"`
	}
	decode(t, resp, &body)
	assert.Equal(t, models.RoleCashier, body.User.Role)
	assert.Equal(t, "/dashboard/cashier", body.Redirect)
}

func TestLoginRejected(t *testing.T) {
	f := setup(t)

	resp := f.request(t, http.MethodPost, "/login", models.LoginRequest{Username: "kasir", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/login", models.LoginRequest{Username: "", Password: ""}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 1, f.backend.Calls(http.MethodPost, "/auth/login"), "empty credentials never reach the backend")
}

func TestCashierViewAggregatesEveryKios(t *testing.T) {
	f := setup(t)
	f.seedOrders()

	resp := f.request(t, http.MethodGet, "/dashboard/cashier?status=paid", nil, &f.cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view CashierView
	decode(t, resp, &view)
	assert.Equal(t, 5, view.Summary.Total)
	assert.Equal(t, int64(62000), view.Summary.Revenue)
	require.Len(t, view.Orders, 2)
	assert.Equal(t, "Es Teh Segar", view.Orders[0].KiosName, "newest first")
	assert.Equal(t, "Bakso Pak Min", view.Orders[1].KiosName)
	for _, card := range view.Orders {
		assert.Equal(t, models.StatusPaid, card.Status)
		require.NotEmpty(t, card.Actions)
		assert.Equal(t, models.StatusPreparing, card.Actions[0].Request.Status)
	}
}

func TestCashierViewRejectsBadFilters(t *testing.T) {
	f := setup(t)
	for _, q := range []string{"status=lost", "date=15-10-2026", "date=2026-13-01", "kios_id=x"} {
		resp := f.request(t, http.MethodGet, "/dashboard/cashier?"+q, nil, &f.cashier)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/kios/"))
}

func TestCashierViewForOneDay(t *testing.T) {
	f := setup(t)
	f.seedOrders()
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusCompleted, TotalAmount: 40000,
		CreatedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)})

	resp := f.request(t, http.MethodGet, "/dashboard/cashier?date=2026-10-14", nil, &f.cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view CashierView
	decode(t, resp, &view)
	assert.Equal(t, "2026-10-14", view.Date)
	require.Len(t, view.Orders, 1)
	assert.Equal(t, "Rp 40.000", view.Orders[0].Total)
	assert.Equal(t, 1, view.Summary.Total)

	for _, k := range []models.Kios{f.bakso, f.esTeh} {
		sent := f.backend.Queries(http.MethodGet, fmt.Sprintf("/kios/%d/orders", k.ID))
		require.Len(t, sent, 1, k.Name)
		assert.Contains(t, sent[0], "date=2026-10-14", k.Name)
	}
}

func TestAggregationPolicy(t *testing.T) {
	t.Run("fail fast", func(t *testing.T) {
		f := setup(t)
		f.seedOrders()
		f.backend.FailOrders(f.esTeh.ID, http.StatusInternalServerError)

		resp := f.request(t, http.MethodGet, "/dashboard/cashier", nil, &f.cashier)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body map[string]any
		decode(t, resp, &body)
		assert.Equal(t, true, body["retryable"])
	})

	t.Run("best effort", func(t *testing.T) {
		f := setup(t, func(c *config.Config) { c.AggregatePolicy = "best_effort" })
		f.seedOrders()
		f.backend.FailOrders(f.esTeh.ID, http.StatusInternalServerError)

		resp := f.request(t, http.MethodGet, "/dashboard/cashier", nil, &f.cashier)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var view CashierView
		decode(t, resp, &view)
		assert.Len(t, view.Orders, 3)
		require.Len(t, view.Skipped, 1)
		assert.Equal(t, f.esTeh.ID, view.Skipped[0].KiosID)
	})
}

func TestRolesAreEnforced(t *testing.T) {
	f := setup(t)

	resp := f.request(t, http.MethodGet, "/dashboard/cashier", nil, &f.owner)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/dashboard/kios", nil, &f.cashier)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/dashboard/kios/%d/menus", f.esTeh.ID), nil, &f.owner)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "owners only see their own kios")

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/dashboard/kios/%d/menus", f.esTeh.ID), nil, &f.cashier)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestKiosView(t *testing.T) {
	f := setup(t)
	f.seedOrders()

	resp := f.request(t, http.MethodGet, "/dashboard/kios", nil, &f.owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view KiosView
	decode(t, resp, &view)
	assert.Equal(t, f.bakso.ID, view.KiosID)
	assert.Len(t, view.Orders, 3)
	assert.Len(t, view.Board.Waiting, 1)
	assert.Len(t, view.Board.Ready, 1)
	require.NotNil(t, view.Board.Serving)
	assert.Equal(t, "Ready for pickup", view.Board.Serving.StatusText)
}

func TestMonitorView(t *testing.T) {
	f := setup(t)
	f.seedOrders()
	later := at(9, 45)
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusReady, TotalAmount: 9000, CreatedAt: at(9, 20), ReadyAt: &later})

	resp := f.request(t, http.MethodGet, fmt.Sprintf("/monitor/%d", f.bakso.ID), nil, &f.owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view MonitorView
	decode(t, resp, &view)
	assert.Equal(t, "Bakso Pak Min", view.KiosName)
	assert.Equal(t, 3, view.Board.Count)
	require.NotNil(t, view.Board.Serving)
	assert.Equal(t, "Rp 12.000", view.Board.Serving.Total, "earliest ready order is being served")
	assert.Empty(t, view.Board.Serving.Actions, "monitors are read-only")
}

func TestUpdateOrderStatus(t *testing.T) {
	f := setup(t)
	o := f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusPending, TotalAmount: 20000})

	resp := f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/orders/%d/status", o.ID),
		map[string]string{"status": "paid"}, &f.cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var card present.OrderCard
	decode(t, resp, &card)
	assert.Equal(t, models.StatusPaid, card.Status)
	assert.Equal(t, models.PaymentCash, card.PaymentMethod)

	stored, _ := f.backend.Order(o.ID)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, models.PaymentCash, stored.PaymentMethod)

	logs, total, err := f.actions.List(context.Background(), audit.Query{EntityType: "order"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.ActionStatusChange, logs[0].Action)
	assert.Equal(t, f.cashier.ID, logs[0].UserID)
	assert.NotEmpty(t, logs[0].RequestID)
}

func TestAdvanceOrderWithoutStatus(t *testing.T) {
	f := setup(t)
	o := f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusPaid, TotalAmount: 20000})

	resp := f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/orders/%d/status", o.ID), map[string]string{}, &f.owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored, _ := f.backend.Order(o.ID)
	assert.Equal(t, models.StatusPreparing, stored.Status)
	assert.Equal(t, 1, f.backend.Calls(http.MethodGet, fmt.Sprintf("/orders/%d", o.ID)), "the order is read once per update")
}

func TestStatusErrors(t *testing.T) {
	f := setup(t)
	done := f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusCompleted})
	foreign := f.backend.AddOrder(models.Order{KiosID: f.esTeh.ID, Status: models.StatusPaid})
	before := f.backend.Calls(http.MethodPut, fmt.Sprintf("/orders/%d/status", done.ID))

	resp := f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/orders/%d/status", done.ID),
		map[string]string{"status": "preparing"}, &f.cashier)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, before, f.backend.Calls(http.MethodPut, fmt.Sprintf("/orders/%d/status", done.ID)))

	resp = f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/orders/%d/status", done.ID),
		map[string]string{"status": "shipped"}, &f.cashier)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/orders/%d/status", foreign.ID),
		map[string]string{"status": "preparing"}, &f.owner)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)
	bakso := f.backend.AddMenu(f.bakso.ID, "Bakso Urat", 15000, true)
	teh := f.backend.AddMenu(f.bakso.ID, "Teh Manis", 5000, true)
	soldOut := f.backend.AddMenu(f.bakso.ID, "Mie Ayam", 12000, false)
	path := fmt.Sprintf("/dashboard/kios/%d/orders", f.bakso.ID)

	resp := f.request(t, http.MethodPost, path, models.CreateOrderRequest{
		CustomerName: "Budi",
		Items: []models.CreateOrderItemRequest{
			{MenuID: bakso.ID, Quantity: 2},
			{MenuID: teh.ID, Quantity: 1, Notes: "less sugar"},
		},
	}, &f.owner)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Order
	decode(t, resp, &created)
	assert.Equal(t, int64(35000), created.TotalAmount)
	assert.Equal(t, models.StatusPending, created.Status)

	resp = f.request(t, http.MethodPost, path, models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuID: soldOut.ID, Quantity: 1}},
	}, &f.owner)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	before := f.backend.Calls(http.MethodPost, fmt.Sprintf("/kios/%d/orders", f.bakso.ID))
	resp = f.request(t, http.MethodPost, path, models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{MenuID: bakso.ID, Quantity: 0}},
	}, &f.owner)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "a zero quantity is invalid")
	assert.Equal(t, before, f.backend.Calls(http.MethodPost, fmt.Sprintf("/kios/%d/orders", f.bakso.ID)))

	resp = f.request(t, http.MethodPost, path, models.CreateOrderRequest{}, &f.owner)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "an empty cart is invalid")
}

func TestKiosManagement(t *testing.T) {
	f := setup(t)

	resp := f.request(t, http.MethodPost, "/dashboard/cashier/kios", models.KiosRequest{Name: ""}, &f.cashier)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var verr map[string]any
	decode(t, resp, &verr)
	assert.Equal(t, "validation failed", verr["error"])
	assert.NotEmpty(t, verr["details"])

	resp = f.request(t, http.MethodPost, "/dashboard/cashier/kios", models.KiosRequest{Name: "Nasi Goreng 99", Location: "A3"}, &f.cashier)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var k models.Kios
	decode(t, resp, &k)

	resp = f.request(t, http.MethodGet, "/dashboard/cashier/kios", nil, &f.cashier)
	var list []models.Kios
	decode(t, resp, &list)
	assert.Len(t, list, 3)

	f.backend.AddMenu(f.bakso.ID, "Bakso Urat", 15000, true)
	resp = f.request(t, http.MethodDelete, fmt.Sprintf("/dashboard/cashier/kios/%d", f.bakso.ID), nil, &f.cashier)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.request(t, http.MethodDelete, fmt.Sprintf("/dashboard/cashier/kios/%d", k.ID), nil, &f.cashier)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	logs, _, err := f.actions.List(context.Background(), audit.Query{EntityType: "kios"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionDelete, logs[0].Action)
	assert.Equal(t, models.ActionCreate, logs[1].Action)

	resp = f.request(t, http.MethodGet, "/dashboard/cashier/activity?entity_type=kios", nil, &f.cashier)
	var activity struct {
		Data  []audit.LogResponse `json:"data"`
		Total int64               `json:"total"`
	}
	decode(t, resp, &activity)
	assert.EqualValues(t, 2, activity.Total)
}

func TestMenuManagement(t *testing.T) {
	f := setup(t)
	menu := f.backend.AddMenu(f.bakso.ID, "Bakso Urat", 15000, true)
	f.backend.AddMenu(f.bakso.ID, "Mie Ayam", 12000, false)

	resp := f.request(t, http.MethodGet, fmt.Sprintf("/dashboard/kios/%d/menus?available=true", f.bakso.ID), nil, &f.owner)
	var menus []models.Menu
	decode(t, resp, &menus)
	require.Len(t, menus, 1)
	assert.Equal(t, "Bakso Urat", menus[0].Name)

	resp = f.request(t, http.MethodPost, fmt.Sprintf("/dashboard/menus/%d/toggle", menu.ID), nil, &f.owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled models.Menu
	decode(t, resp, &toggled)
	assert.False(t, toggled.IsAvailable)

	price := int64(17000)
	resp = f.request(t, http.MethodPut, fmt.Sprintf("/dashboard/menus/%d", menu.ID), models.MenuUpdate{Price: &price}, &f.owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/dashboard/kios/%d/menus?available=maybe", f.bakso.ID), nil, &f.owner)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	logs, total, err := f.actions.List(context.Background(), audit.Query{EntityType: "menu", EntityID: menu.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Contains(t, logs[1].Description, "unavailable")
}

func TestRevokedSessionClearsCookies(t *testing.T) {
	f := setup(t)
	f.backend.RevokeAll()

	resp := f.request(t, http.MethodGet, "/dashboard/cashier", nil, &f.cashier)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cleared := setCookie(resp, session.TokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fcashier", body["redirect"])
}

func TestBackendUnreachable(t *testing.T) {
	f := setup(t, func(c *config.Config) { c.BackendURL = "http://127.0.0.1:1/api/v1" })

	resp := f.request(t, http.MethodGet, "/dashboard/cashier", nil, &f.cashier)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "backend unreachable", body["error"])
	assert.Equal(t, true, body["retryable"])
}

func TestExport(t *testing.T) {
	f := setup(t)
	f.seedOrders()
	f.dash.now = func() time.Time { return at(14, 0) }

	resp := f.request(t, http.MethodGet, "/dashboard/cashier/export.xlsx?status=paid", nil, &f.cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "orders-20261015-140000.xlsx")

	defer resp.Body.Close()
	book, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(report.OrdersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus the two paid orders")
}

func TestRevenueChart(t *testing.T) {
	f := setup(t)
	paid := at(10, 0)
	f.backend.AddOrder(models.Order{KiosID: f.bakso.ID, Status: models.StatusCompleted, TotalAmount: 20000, PaidAt: &paid, PaymentMethod: models.PaymentCash})
	f.backend.AddOrder(models.Order{KiosID: f.esTeh.ID, Status: models.StatusPaid, TotalAmount: 5000, PaidAt: &paid, PaymentMethod: models.PaymentDigital})
	f.dash.now = func() time.Time { return at(14, 0) }

	resp := f.request(t, http.MethodGet, "/dashboard/cashier/revenue-chart?period=daily&count=3", nil, &f.cashier)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Chart report.Chart `json:"chart"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Chart.Points, 3)
	assert.Equal(t, int64(25000), body.Chart.GrandTotals.Total)
	assert.Equal(t, int64(5000), body.Chart.Points[2].Digital)

	resp = f.request(t, http.MethodGet, "/dashboard/cashier/revenue-chart?period=yearly", nil, &f.cashier)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionIDHidesToken(t *testing.T) {
	assert.Equal(t, "anonymous", sessionID(""))
	id := sessionID("some.jwt.token")
	assert.Len(t, id, 16)
	assert.NotContains(t, id, "jwt")
	assert.Equal(t, id, sessionID("some.jwt.token"))
	assert.True(t, strings.IndexFunc(id, func(r rune) bool { return !strings.ContainsRune("0123456789abcdef", r) }) < 0)
}
