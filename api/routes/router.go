package routes

import (
	"fmt"
	"log/slog"

	"github.com/cicgroup/policy-quote-service/api/handlers"
	"github.com/cicgroup/policy-quote-service/api/middleware"
	"github.com/cicgroup/policy-quote-service/pkg/circuitbreaker"
	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/payment"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

const gatewayBreakerName = "payment-gateway"

type Dependencies struct {
	Config *core.Config
	Redis  *redis.Client
	Otel   core.OtelService
	Logger *slog.Logger
	// Overrides the mock mobile-money gateway.
	Gateway payment.Gateway
}

func RegisterRoutes(app fiber.Router, deps Dependencies) error {
	cfg := deps.Config

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	otel := deps.Otel
	if otel == nil {
		otel = core.NewNoopOtelService()
	}

	table, err := quote.TableByName(cfg.Quote.RateTable)
	if err != nil {
		return err
	}

	calc, err := quote.NewCalculator(quote.Options{
		Table:  table,
		Bounds: quote.AgeBounds{Min: cfg.Quote.AgeMin, Max: cfg.Quote.AgeMax},
		Otel:   otel,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to init quote calculator: %w", err)
	}

	store := session.NewStore(deps.Redis, session.Options{
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      logger,
	})

	gateway := deps.Gateway
	if gateway == nil {
		gateway = payment.NewMockGateway(payment.MockOptions{
			Delay:    cfg.Payment.Delay,
			FailWith: cfg.Payment.FailWith,
			Logger:   logger,
		})
	}

	breaker := circuitbreaker.NewRedisBreaker(
		deps.Redis,
		gatewayBreakerName,
		circuitbreaker.OptionsFromConfig(cfg.Breaker),
		logger,
	)

	payments, err := payment.NewService(payment.Options{
		Gateway: payment.NewBreakerGateway(gateway, breaker),
		Ledger:  payment.NewSessionLedger(store),
		Timeout: cfg.Payment.Timeout,
		Otel:    otel,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to init payment service: %w", err)
	}

	api := app.Group("/api/v1", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "*",
		AllowMethods: "GET,POST",
	}))
	api.Post("/quotes", handlers.CreateQuote(calc))

	withSession := middleware.Session(store, cfg.Session, logger)

	app.Get("/", withSession, handlers.ShowForm(calc, store))
	app.Post("/quote", withSession, handlers.SubmitQuote(calc, store, logger))
	app.Get("/results", withSession, handlers.ShowResults(store))
	app.Get("/payment", withSession, handlers.ShowPayment(store))
	app.Post("/payment", withSession, handlers.SubmitPayment(store, payments, logger))
	app.Get("/receipt", withSession, handlers.ShowReceipt(payments, logger))
	app.Post("/reset", withSession, handlers.Reset(store, cfg.Session))

	return nil
}
