package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/agamariel/poscore/internal/auth"
	"github.com/agamariel/poscore/internal/broadcast"
	"github.com/agamariel/poscore/internal/config"
	"github.com/agamariel/poscore/internal/handlers"
	"github.com/agamariel/poscore/internal/migrations"
	"github.com/agamariel/poscore/internal/numberpool"
	"github.com/agamariel/poscore/internal/services"
	"github.com/agamariel/poscore/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg         *config.Config
	dbPool      *pgxpool.Pool
	echo        *echo.Echo
	broadcaster *broadcast.Broadcaster
	ledger      *services.LedgerServiceImpl
	worker      *services.ArchiveWorker

	// Handlers
	staffHandler   *handlers.StaffHandler
	orderHandler   *handlers.OrderHandler
	catalogHandler *handlers.CatalogHandler
	adminHandler   *handlers.AdminHandler
	streamHandler  *handlers.StreamHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg: cfg,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initDependencies(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app.initServer()

	return app, nil
}

// initDatabase инициализирует подключение к базе данных и выполняет миграции.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	// Применение миграций
	log.Println("Running database migrations...")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Migrations completed successfully")

	// Подключение к базе данных через pgxpool
	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	log.Println("Successfully connected to database")

	return nil
}

// initDependencies инициализирует все зависимости приложения (storage, services, handlers).
func (app *App) initDependencies(ctx context.Context) error {
	// Storage layer
	orderStorage := storage.NewPostgresOrderStorage(app.dbPool)
	staffStorage := storage.NewPostgresStaffStorage(app.dbPool)
	catalogStorage := storage.NewPostgresCatalogStorage(app.dbPool)
	discountStorage := storage.NewPostgresDiscountStorage(app.dbPool)
	settingsStorage := storage.NewPostgresSettingsStorage(app.dbPool)

	// Рассыльщик снимков и пул номеров
	app.broadcaster = broadcast.New(app.cfg.StreamBuffer, log.Default())
	pool := numberpool.New()

	// Service layer
	app.ledger = services.NewLedgerService(
		orderStorage, catalogStorage, discountStorage, settingsStorage,
		pool, app.broadcaster,
		app.cfg.TaxRate, app.cfg.LockWait, app.cfg.StorageTimeout,
		log.Default(),
	)
	staffService := services.NewStaffService(staffStorage, app.cfg.JWTSecret, app.cfg.TokenExpiration)
	catalogService := services.NewCatalogService(catalogStorage, discountStorage)
	settingsService := services.NewSettingsService(settingsStorage)

	// Восстановление распределителя номеров после рестарта
	if err := app.ledger.RestoreNumbers(ctx); err != nil {
		return fmt.Errorf("failed to restore number pool: %w", err)
	}

	// Handler layer
	app.staffHandler = handlers.NewStaffHandler(staffService)
	app.orderHandler = handlers.NewOrderHandler(app.ledger)
	app.catalogHandler = handlers.NewCatalogHandler(catalogService)
	app.adminHandler = handlers.NewAdminHandler(settingsService, app.ledger)
	app.streamHandler = handlers.NewStreamHandler(app.broadcaster)

	// Воркер архивирования завершённых заказов
	app.worker = services.NewArchiveWorker(orderStorage, app.cfg.ArchiveInterval, log.Default())

	return nil
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	// Публичные маршруты: вход и учёт времени по PIN
	e.POST("/api/auth/login", app.staffHandler.Login)
	e.POST("/api/shifts/clock-in", app.staffHandler.ClockIn)
	e.POST("/api/shifts/clock-out", app.staffHandler.ClockOut)
	e.POST("/api/shifts/break/start", app.staffHandler.StartBreak)
	e.POST("/api/shifts/break/end", app.staffHandler.EndBreak)

	// Защищённые маршруты (требуют аутентификации)
	protected := e.Group("/api")
	protected.Use(auth.JWTMiddleware(app.cfg.JWTSecret))
	protected.GET("/staff", app.staffHandler.ListStaff)
	protected.GET("/menu", app.catalogHandler.GetMenu)
	protected.GET("/discounts", app.catalogHandler.GetDiscounts)
	protected.GET("/reports/daily", app.orderHandler.DailyReport)
	protected.GET("/stream", app.streamHandler.Stream)

	protected.POST("/orders", app.orderHandler.Create)
	protected.GET("/orders", app.orderHandler.List)
	protected.GET("/orders/:id", app.orderHandler.Get)
	protected.POST("/orders/:id/items", app.orderHandler.AddItem)
	protected.DELETE("/orders/:id/items/:itemID", app.orderHandler.RemoveItem)
	protected.POST("/orders/:id/discounts", app.orderHandler.ApplyDiscount)
	protected.DELETE("/orders/:id/discounts/:discountID", app.orderHandler.RemoveDiscount)
	protected.POST("/orders/:id/close", app.orderHandler.Close)
	protected.POST("/orders/:id/cancel", app.orderHandler.Cancel)

	// Административные маршруты
	admin := protected.Group("", auth.AdminMiddleware())
	admin.POST("/orders/:id/refund", app.orderHandler.Refund)
	admin.GET("/admin/card-fee", app.adminHandler.GetCardFee)
	admin.PUT("/admin/card-fee", app.adminHandler.UpdateCardFee)
	admin.POST("/admin/orders/reset", app.adminHandler.ResetOrderNumbers)

	app.echo = e
}

// Start запускает приложение.
func (app *App) Start(ctx context.Context) error {
	// Запуск воркера архивирования
	log.Println("Starting archive worker...")
	app.worker.Start(ctx)
	log.Println("Archive worker started")

	// Запуск сервера
	log.Printf("Starting server on %s", app.cfg.RunAddress)
	if err := app.echo.Start(app.cfg.RunAddress); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	log.Println("Server gracefully stopped")
	return nil
}
