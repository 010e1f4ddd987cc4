package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"
	"go-inventory-ledger/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "go-inventory-ledger"

func main() {
	// 1. Load config and logger
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.Init(cfg.LogLevel, cfg.Server.Env, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("Starting service", cfg.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.Connect(&cfg.DB, cfg.TracingEnabled, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		zl.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb, locker := database.ConnectRedis(ctx, cfg.Redis, zl)
	if rdb != nil {
		defer rdb.Close()
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)

	productRepo := repository.NewProductRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	logRepo := repository.NewInventoryLogRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	sequence := service.NewDBSequence(repository.NewSequenceRepo())
	if rdb != nil {
		sequence = service.NewRedisSequence(rdb)
	}
	ledger := service.Ledger{
		DB:       db,
		Products: productRepo,
		Logs:     logRepo,
		Sequence: sequence,
		Locker:   locker,
		Events:   wsHub,
		Config:   cfg.Ledger,
	}

	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	if err := userService.SeedDefaults(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		zl.Fatal("Failed to seed roles and admin user", zap.Error(err))
	}

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(service.NewAuthService(userRepo, tokens)),
		Product:   handler.NewProductHandler(service.NewProductService(productRepo, supplierRepo, wsHub)),
		Supplier:  handler.NewSupplierHandler(service.NewSupplierService(supplierRepo)),
		Purchase:  handler.NewPurchaseHandler(service.NewPurchaseService(ledger, purchaseRepo, supplierRepo)),
		Sale:      handler.NewSaleHandler(service.NewSaleService(ledger, saleRepo)),
		Inventory: handler.NewInventoryHandler(service.NewInventoryLogService(logRepo, productRepo)),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(productRepo, logRepo, cfg.Ledger.LowStockThreshold)),
		User:      handler.NewUserHandler(userService),
		Role:      handler.NewRoleHandler(userService, privilegeRepo),
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Inventory Ledger v1.0",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: "request_id",
	}))
	app.Use(logger.Middleware())
	app.Use(metrics.Middleware())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", metrics.Handler())

	// 6. Routes
	handler.RegisterRoutes(app, handlers, tokens)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zl.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server exited")
}

// errorHandler renders errors that never reached a handler (unknown routes, body limits)
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": "HTTP_" + strconv.Itoa(code), "message": err.Error()})
}
