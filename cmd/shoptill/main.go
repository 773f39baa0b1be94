package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shoptill/internal/config"
	"shoptill/internal/http/handlers"
	applog "shoptill/internal/log"
	"shoptill/internal/repos"
	"shoptill/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN, cfg.SeedDemoData)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	authSvc := services.NewAuthService(repos.NewUserRepo(db))
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and respond without leaking internals
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach staff user to context if logged in (for audit attribution)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("actor_id", u.ID)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg)

	// Auth (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// POS API
	api := app.Group("/api/v1", handlers.RequireUser(authSvc))
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Info)
	api.Get("/availability", deps.InventoryHandler.Check)
	api.Post("/sales", deps.SaleHandler.Complete)
	api.Get("/orders/:id", deps.SaleHandler.View)
	api.Post("/orders/:id/refund", deps.SaleHandler.Refund)
	api.Get("/customers", deps.CustomerHandler.List)
	api.Post("/customers", deps.CustomerHandler.Create)
	api.Get("/customers/:id", deps.CustomerHandler.Get)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Post("/products", deps.ProductHandler.Create)
	admin.Post("/staff", authH.CreateStaff)
	admin.Post("/stock/adjust", deps.InventoryHandler.Adjust)
	admin.Get("/stock/low", deps.InventoryHandler.LowStock)
	admin.Post("/customers/recompute", deps.CustomerHandler.Recompute)
	admin.Get("/reports/sales.csv", deps.ReportHandler.SalesCSV)
	admin.Get("/reports/adjustments.csv", deps.ReportHandler.AdjustmentsCSV)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
