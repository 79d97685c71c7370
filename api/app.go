package api

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/cicgroup/policy-quote-service/api/handlers"
	"github.com/cicgroup/policy-quote-service/api/routes"
	"github.com/cicgroup/policy-quote-service/api/views"
	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/payment"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/redis/go-redis/v9"

	"go.opentelemetry.io/otel/codes"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	slogfiber "github.com/samber/slog-fiber"
)

const msgMissingState = "There is nothing to show here yet. Please start a new quote."

func isAPI(ctx *fiber.Ctx) bool {
	return strings.HasPrefix(ctx.Path(), "/api/")
}

func errorHandler(logger *slog.Logger, otel core.OtelService) fiber.ErrorHandler {
	handleFiberError := func(ctx *fiber.Ctx, err *fiber.Error) error {
		span := otel.SpanFromContext(ctx.UserContext())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)

		logger.Error(
			"Fiber Error",
			"Code",
			err.Code,
			"Message",
			err.Message,
		)

		if isAPI(ctx) || ctx.Path() == "/status" {
			return ctx.Status(err.Code).JSON(fiber.Map{"error": err.Message})
		}

		renderErr := handlers.RenderError(ctx, err.Code, http.StatusText(err.Code), err.Message)
		if renderErr != nil {
			logger.Error("failed to render error page", "err", renderErr)
			return ctx.Status(err.Code).SendString(err.Message)
		}
		return nil
	}

	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, session.ErrMissingState) {
			logger.Info("screen opened without handoff state", "path", ctx.Path(), "err", err)
			return handlers.RenderError(ctx, fiber.StatusConflict, "Nothing to show", msgMissingState)
		}

		var e *fiber.Error
		if !errors.As(err, &e) {
			logger.Error("unhandled error", "path", ctx.Path(), "err", err)
			e = fiber.ErrInternalServerError
		}
		return handleFiberError(ctx, e)
	}
}

func stackTraceHandler(logger *slog.Logger) func(*fiber.Ctx, any) {
	return func(c *fiber.Ctx, e any) {
		stack := debug.Stack()
		logger.ErrorContext(
			c.UserContext(),
			"panic!",
			"stack",
			stack,
			"err",
			e,
		)
	}
}

type Config struct {
	Otel   core.OtelService
	Logger *slog.Logger
	Redis  *redis.Client
	// Overrides the mock mobile-money gateway.
	Gateway payment.Gateway
	core.Config
}

func New(cfg *Config) (*fiber.App, error) {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")

	fiberConfig := fiber.Config{
		ErrorHandler: errorHandler(cfg.Logger, cfg.Otel),
		Views:        engine,
		ViewsLayout:  views.Layout,
	}

	app := fiber.New(fiberConfig)

	app.Use(recover.New(recover.Config{
		Next:              nil,
		EnableStackTrace:  true,
		StackTraceHandler: stackTraceHandler(cfg.Logger),
	}))

	app.Use(otelfiber.Middleware())

	app.Use(slogfiber.NewWithConfig(
		cfg.Logger,
		slogfiber.Config{
			WithRequestID: true,
			WithSpanID:    true,
			WithTraceID:   true,
		},
	))

	routes.StatusRouter(app, cfg.Redis)

	err := routes.RegisterRoutes(app, routes.Dependencies{
		Config:  &cfg.Config,
		Redis:   cfg.Redis,
		Otel:    cfg.Otel,
		Logger:  cfg.Logger,
		Gateway: cfg.Gateway,
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}
