package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

const (
	productEventsQueue = "product_events"
	productEventsKey   = "product.*"
)

// App wires the store, services and HTTP routes together.
type App struct {
	Fiber          *fiber.App
	DB             *gorm.DB
	ProductService *services.ProductService
	AuthService    *services.AuthService
	Registry       *prometheus.Registry

	mq     *rabbitmq.Client
	logger zerolog.Logger
}

// New connects to the store, migrates it and builds the HTTP app. Product
// events are enabled when cfg.RabbitMQURL is set.
func New(cfg config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.Open(database.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		Debug:  cfg.DatabaseDebug,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}

	a := &App{DB: db, logger: logger}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:        cfg.RabbitMQURL,
			Exchange:   services.ProductExchange,
			Queue:      productEventsQueue,
			BindingKey: productEventsKey,
		})
		if err != nil {
			database.Close(db)
			return nil, err
		}
		a.mq = mq
		publisher = mq
		logger.Info().Str("exchange", services.ProductExchange).Msg("RabbitMQ client connected")
	} else {
		logger.Info().Msg("RABBITMQ_URL not set, product events disabled")
	}

	a.Registry = prometheus.NewRegistry()
	m, err := metrics.New(a.Registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	a.ProductService = services.NewProductService(productRepo, logger, publisher, m)
	a.AuthService = services.NewAuthService(userRepo, logger, cfg.JWTSecret)

	validate := handlers.NewValidator()
	productHandler := handlers.NewProductHandler(a.ProductService, validate)
	authHandler := handlers.NewAuthHandler(a.AuthService, validate)

	a.Fiber = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// titles are looked up from the path, so %20 and friends must be decoded
		UnescapePath: true,
	})
	a.Fiber.Use(fiberlogger.New())

	a.Fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitMQ": a.mq != nil,
		})
	})
	a.Fiber.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	apiV1 := a.Fiber.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(a.AuthService, logger))

	return a, nil
}

// ConsumeProductEvents logs every product event delivered to the events queue.
// It is a no-op when events are disabled.
func (a *App) ConsumeProductEvents() error {
	if a.mq == nil {
		return nil
	}
	handler := func(msg amqp.Delivery) error {
		logProductEvent(a.logger, msg)
		return nil
	}
	onError := func(tag uint64, err error) {
		a.logger.Error().Err(err).Uint64("delivery_tag", tag).Msg("failed to process product event")
	}
	return a.mq.Consume(handler, onError)
}

// logProductEvent embeds JSON bodies as-is and anything else as a string.
func logProductEvent(logger zerolog.Logger, msg amqp.Delivery) {
	event := logger.Info().
		Uint64("delivery_tag", msg.DeliveryTag).
		Str("routing_key", msg.RoutingKey)
	if json.Valid(msg.Body) {
		event = event.RawJSON("body", msg.Body)
	} else {
		event = event.Bytes("body", msg.Body)
	}
	event.Msg("received product event")
}

// Close shuts down the HTTP app and releases the broker and store connections.
func (a *App) Close() error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SeedProducts inserts a few sample products. Titles that already exist are skipped.
func (a *App) SeedProducts(ctx context.Context) {
	seeds := []services.CreateProductInput{
		{Title: "Chill Crew Neck Sweatshirt", Price: decimal.RequireFromString("75"), Stock: 7, Sizes: []string{"XS", "S", "M", "L", "XL"}, Gender: "men", Tags: []string{"sweatshirt"}},
		{Title: "Cybertruck Bulletproof Tee", Price: decimal.RequireFromString("30"), Stock: 30, Sizes: []string{"S", "M", "L"}, Gender: "unisex", Tags: []string{"shirt"}},
		{Title: "Women's Cropped Puffer Jacket", Price: decimal.RequireFromString("225"), Stock: 5, Sizes: []string{"XS", "S", "M"}, Gender: "women", Tags: []string{"jacket"}},
		{Title: "Kids Racing Stripe Tee", Price: decimal.RequireFromString("30"), Stock: 10, Sizes: []string{"XS", "S", "M"}, Gender: "kid", Tags: []string{"shirt"}},
	}

	for _, seed := range seeds {
		product, err := a.ProductService.CreateProduct(ctx, seed)
		switch {
		case services.IsKind(err, services.ErrorKindConflict):
			a.logger.Debug().Str("title", seed.Title).Msg("seed product already present")
		case err != nil:
			a.logger.Warn().Err(err).Str("title", seed.Title).Msg("failed to seed product")
		default:
			a.logger.Info().Str("title", product.Title).Str("product_id", product.ID).Msg("seeded product")
		}
	}
}
