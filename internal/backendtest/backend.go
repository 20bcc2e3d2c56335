// Package backendtest runs an in-memory stand-in for the food-court REST
// backend on a loopback listener, for tests.
package backendtest

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	BasePath = "/api/v1"
	secret   = "backendtest-signing-secret-0123456789"
)

type account struct {
	password string
	user     models.User
}

type Backend struct {
	URL string

	app *fiber.App

	mu        sync.Mutex
	accounts  map[string]account
	kios      map[uint]*models.Kios
	menus     map[uint]*models.Menu
	orders    map[uint]*models.Order
	nextID    uint
	queueSeq  map[uint]int
	revoked   bool
	failKios  map[uint]int
	calls     map[string]int
	queries   map[string][]string
	now       func() time.Time
	beforeHit func(method, path string)
}

type claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Start listens on 127.0.0.1 and stops with the test.
func Start(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		accounts: map[string]account{},
		kios:     map[uint]*models.Kios{},
		menus:    map[uint]*models.Menu{},
		orders:   map[uint]*models.Order{},
		queueSeq: map[uint]int{},
		failKios: map[uint]int{},
		calls:    map[string]int{},
		queries:  map[string][]string{},
		now:      time.Now,
	}

	b.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	b.routes()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("backendtest: listen: %v", err)
	}
	go func() { _ = b.app.Listener(ln) }()
	t.Cleanup(func() { _ = b.app.Shutdown() })

	b.URL = "http://" + ln.Addr().String() + BasePath
	return b
}

func (b *Backend) routes() {
	api := b.app.Group(BasePath)
	api.Use(b.count)
	api.Post("/auth/login", b.login)

	protected := api.Group("")
	protected.Use(b.auth)
	protected.Get("/me", b.me)
	protected.Get("/kios/", b.listKios)
	protected.Post("/kios/", b.createKios)
	protected.Get("/kios/:id", b.getKios)
	protected.Put("/kios/:id", b.updateKios)
	protected.Delete("/kios/:id", b.deleteKios)
	protected.Get("/kios/:id/menus", b.listMenus)
	protected.Post("/kios/:id/menus", b.createMenu)
	protected.Get("/menus/:id", b.getMenu)
	protected.Put("/menus/:id", b.updateMenu)
	protected.Delete("/menus/:id", b.deleteMenu)
	protected.Get("/kios/:id/orders", b.listOrders)
	protected.Post("/kios/:id/orders", b.createOrder)
	protected.Get("/kios/:id/queue", b.queue)
	protected.Get("/orders/:id", b.getOrder)
	protected.Put("/orders/:id/status", b.updateStatus)
}

func (b *Backend) count(c *fiber.Ctx) error {
	key := c.Method() + " " + strings.TrimPrefix(c.Path(), BasePath)
	b.mu.Lock()
	b.calls[key]++
	b.queries[key] = append(b.queries[key], string(c.Request().URI().QueryString()))
	hook := b.beforeHit
	b.mu.Unlock()
	if hook != nil {
		hook(c.Method(), strings.TrimPrefix(c.Path(), BasePath))
	}
	return c.Next()
}

func (b *Backend) auth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	token, err := jwt.ParseWithClaims(parts[1], &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}
	b.mu.Lock()
	revoked := b.revoked
	b.mu.Unlock()
	if revoked {
		return fiber.NewError(fiber.StatusUnauthorized, "token revoked")
	}
	c.Locals("user_id", token.Claims.(*claims).UserID)
	return c.Next()
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data, "message": "Success"})
}

// ---- fixtures and knobs ----

func (b *Backend) id() uint {
	b.nextID++
	return b.nextID
}

func (b *Backend) AddUser(username, password string, u models.User) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u.ID = b.id()
	u.Username = username
	u.IsActive = true
	b.accounts[username] = account{password: password, user: u}
	return u
}

func (b *Backend) AddKios(name string) models.Kios {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	k := &models.Kios{ID: b.id(), Name: name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	b.kios[k.ID] = k
	return *k
}

func (b *Backend) AddMenu(kiosID uint, name string, price int64, available bool) models.Menu {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	m := &models.Menu{
		ID: b.id(), KiosID: kiosID, KiosName: b.kios[kiosID].Name, Name: name, Price: price,
		Category: models.CategoryFood, IsAvailable: available, CreatedAt: now, UpdatedAt: now,
	}
	b.menus[m.ID] = m
	b.kios[kiosID].MenuCount++
	return *m
}

// AddOrder stores an order as-is (status and timestamps included).
func (b *Backend) AddOrder(o models.Order) models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	o.ID = b.id()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = b.now()
	}
	if o.QueueNumber == "" {
		o.QueueNumber = b.queueNumber(o.KiosID)
	}
	if k, ok := b.kios[o.KiosID]; ok {
		o.KiosName = k.Name
		k.OrderCount++
	}
	b.orders[o.ID] = &o
	return o
}

func (b *Backend) Order(id uint) (models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

// Token issues a valid token for an existing user without a login call.
func (b *Backend) Token(userID uint) string {
	tok, err := sign(userID, time.Now().Add(24*time.Hour))
	if err != nil {
		panic(err)
	}
	return tok
}

// RevokeAll makes every authenticated call answer 401.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked = true
}

// FailOrders makes GET /kios/{id}/orders answer status.
func (b *Backend) FailOrders(kiosID uint, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failKios[kiosID] = status
}

// BeforeHit runs fn for every request before routing, e.g. to block it.
func (b *Backend) BeforeHit(fn func(method, path string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beforeHit = fn
}

func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// Queries lists the raw query strings sent to method and path, oldest first.
func (b *Backend) Queries(method, path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries[method+" "+path]...)
}

func sign(userID uint, exp time.Time) (string, error) {
	c := &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func (b *Backend) queueNumber(kiosID uint) string {
	b.queueSeq[kiosID]++
	return fmt.Sprintf("K%d-%03d", kiosID, b.queueSeq[kiosID])
}

func sortedOrders(in map[uint]*models.Order, keep func(*models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range in {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
