package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"certdocs/docs"
	"certdocs/internal/auth"
	"certdocs/internal/config"
	"certdocs/internal/database"
	"certdocs/internal/database/migration"
	handlers "certdocs/internal/http/handler"
	"certdocs/internal/http/middleware"
	"certdocs/internal/logging"
	"certdocs/internal/metrics"
	"certdocs/internal/otel"
	"certdocs/internal/repository/postgres"
	"certdocs/internal/service"
	"certdocs/internal/storage"
)

const serviceName = "certdocs"

// @title Certification Document API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, serviceName)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	store := postgres.NewStore(db)
	recorder := service.NewAuditRecorder(m)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	numbering := service.NewNumberingService(store, cfg.Document.NumberPrefix)

	authSvc := service.NewAuthService(store, tokens, recorder)
	docSvc := service.NewDocumentService(store, objStore, numbering, recorder, m, log, service.DocumentOptions{
		MaxNumberAttempts: cfg.Document.NumberMaxAttempts,
		UploadMaxBytes:    cfg.Document.UploadMaxBytes,
		Location:          loc,
	})

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		BodyLimit:    int(cfg.Document.UploadMaxBytes) + 1<<20,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	// Swagger UI with dynamic host and scheme
	app.Use("/swagger", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return c.Next()
	})

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:           db,
		Gatherer:     reg,
		SecureCookie: cfg.Auth.SecureCookie,
		Auth:         authSvc,
		Documents:    docSvc,
		Branches:     service.NewBranchService(store, recorder),
		Users:        service.NewUserService(store, recorder),
		Audit:        service.NewAuditService(store, loc),
		Reports:      service.NewReportService(store, loc),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Msg("http server listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
