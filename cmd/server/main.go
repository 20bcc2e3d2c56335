package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"foodcourt-dashboard/internal/audit"
	"foodcourt-dashboard/internal/config"
	"foodcourt-dashboard/internal/dashboard"
	"foodcourt-dashboard/internal/database"
	"foodcourt-dashboard/internal/logging"
	"foodcourt-dashboard/internal/poller"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	var (
		actions audit.Log = audit.NewMemory(0)
		db      *gorm.DB
	)
	if cfg.DatabaseDSN != "" {
		db, err = database.Open(cfg.DatabaseDSN, log.WithField("component", "database"))
		if err != nil {
			log.WithError(err).Fatal("database")
		}
		actions = audit.NewStore(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := poller.NewHub(ctx, log.WithField("component", "hub"))
	d := dashboard.New(dashboard.Deps{
		Config:     cfg,
		Logger:     log,
		Hub:        hub,
		Actions:    actions,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
	})

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          dashboard.ErrorHandler(log),
	})

	// CORS_ALLOWED_ORIGINS is comma separated.
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(logging.Middleware(log))

	d.Routes(app)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		hub.Close()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("dashboard listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("listen")
	}

	if db != nil {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("database close")
		}
	}
}
