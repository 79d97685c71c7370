package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cicgroup/policy-quote-service/api"
	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/redis"

	"github.com/gofiber/fiber/v2"
)

func main() {
	err := core.LoadEnv()
	if err != nil {
		log.Printf("failed to load env files: %v", err)
	}

	cfg, err := core.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel, err := core.NewOtelService(ctx, &cfg)
	if err != nil {
		log.Printf("failed to init otel, continuing without it: %v", err)
		otel = core.NewNoopOtelService()
	}

	logger := core.NewLoggerWithOtel(cfg, otel)
	defer otel.Shutdown(context.Background(), logger)

	_, span := otel.Tracer("startup").Start(ctx, "startup")
	span.AddEvent("Starting up")
	span.End()

	rdb := redis.NewClient(cfg.Redis, logger)
	defer func() {
		closeErr := rdb.Close()
		if closeErr != nil {
			logger.Warn("failed to close redis client", slog.Any("err", closeErr))
		}
	}()

	app, err := buildApp(&api.Config{
		Otel:   otel,
		Logger: logger,
		Redis:  rdb,
		Config: cfg,
	})
	if err != nil {
		logger.Error("failed to build app", slog.Any("err", err))
		return
	}

	logger.Info("starting server",
		slog.String("addr", cfg.Address()),
		slog.String("environment", cfg.Environment),
		slog.String("rate_table", cfg.Quote.RateTable),
	)

	if err := runServer(ctx, app, cfg.Address()); err != nil {
		logger.Error("server error", slog.Any("err", err))
	}
}

func buildApp(cfg *api.Config) (*fiber.App, error) {
	app, err := api.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	return app, nil
}

func runServer(ctx context.Context, app *fiber.App, addr string) error {
	srvErr := make(chan error, 1)

	go func() {
		srvErr <- app.Listen(addr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	// inline if since this err is only needed in the scope of this if statement.
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
