package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tienbob/Tubex-sub003/internal/handler"
	mid "github.com/tienbob/Tubex-sub003/internal/middleware"
	"github.com/tienbob/Tubex-sub003/internal/migration"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/internal/service"
	"github.com/tienbob/Tubex-sub003/pkg/config"
	"github.com/tienbob/Tubex-sub003/pkg/database"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/jwtutil"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/pkg/metrics"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
)

const serviceName = "tubex-api"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogConfig()...)
	prometheus.SetVersion(version)

	// Initialize database
	db, err := database.InitDB(&appConfig.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	if appConfig.DB.AutoMigrate {
		if err := migration.New(db).Migrate(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Migrations applied")
	}

	// Document store is optional
	var docs docstore.Store = docstore.Nop{}
	if appConfig.Mongo.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), appConfig.Mongo.Timeout)
		m, err := docstore.Connect(ctx, &appConfig.Mongo, log)
		if err == nil {
			err = m.EnsureIndexes(ctx)
		}
		cancel()
		if err != nil {
			log.Fatal("Failed to initialize document store", zap.Error(err))
		}
		docs = m
	} else {
		log.Warn("MONGO_URI not set, document store disabled")
	}
	defer docs.Close(context.Background())

	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      appConfig.JWT.SigningKey,
		ExpirationHours: appConfig.JWT.ExpirationHours,
		Issuer:          appConfig.JWT.Issuer,
	})

	store := repository.New(db)
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(service.NewAuthService(store, docs, tokens, &appConfig.Business)),
		Users:     handler.NewUserHandler(service.NewUserService(store, docs), service.NewInvitationService(store, docs, appConfig.Business.InvitationTTL)),
		Companies: handler.NewCompanyHandler(service.NewCompanyService(store, docs)),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(store, docs)),
		Stock:     handler.NewStockHandler(service.NewStockService(store, docs)),
		Orders:    handler.NewOrderHandler(service.NewOrderService(store, docs, appConfig.Business.TaxRate)),
		Health: handler.NewHealthHandler(version, map[string]handler.Check{
			"db":    func(ctx context.Context) error { return database.Ping(ctx, db) },
			"mongo": docs.Ping,
		}),
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  appConfig.Server.AllowedOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID, echo.HeaderContentDisposition},
	}))
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(appConfig.Metrics.Prefix).Middleware())

	handler.RegisterRoutes(e, handlers, tokens, metrics.GetPrometheusHandler())

	// Start server
	go func() {
		log.Info("Starting server", zap.String("port", appConfig.Server.Port))
		if err := e.Start(":" + appConfig.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
