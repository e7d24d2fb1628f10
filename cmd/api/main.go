package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/larder-backend/api/routes"
	"github.com/angelmondragon/larder-backend/internal/categories"
	"github.com/angelmondragon/larder-backend/internal/consolidation"
	"github.com/angelmondragon/larder-backend/internal/menuplans"
	"github.com/angelmondragon/larder-backend/internal/pantry"
	"github.com/angelmondragon/larder-backend/internal/recipes"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/internal/users"
	"github.com/angelmondragon/larder-backend/pkg/config"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/metrics"
	"github.com/angelmondragon/larder-backend/pkg/migrate"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
	"github.com/angelmondragon/larder-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	classifier, err := categories.LoadFile(cfg.Shopping.CategoryRulesFile)
	if err != nil {
		logg.Error(ctx, "failed to load category rules", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shoppingMetrics := metrics.NewShoppingMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, classifier, shoppingMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(serverCtx, "errors during shutdown", closeErr)
		exitCode = 1
	}
	logg.Info(serverCtx, "api server stopped")
	os.Exit(exitCode)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	classifier *categories.Classifier,
	shoppingMetrics *metrics.ShoppingMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()
	converter := consolidation.SameUnit{}

	pantrySvc, err := pantry.NewService(pantry.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	recipeSvc, err := recipes.NewService(recipes.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	grants := sharing.NewRepository(conn)
	sharingSvc, err := sharing.NewService(sharing.ServiceParams{
		Logger:  logg,
		DB:      dbClient,
		Repo:    grants,
		Users:   users.NewRepository(conn),
		Metrics: shoppingMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	listRepo := shoppinglists.NewRepository(conn)
	listSvc, err := shoppinglists.NewService(shoppinglists.ServiceParams{
		Logger:     logg,
		DB:         dbClient,
		Repo:       listRepo,
		Grants:     grants,
		Access:     sharingSvc,
		Classifier: classifier,
		Pantry:     pantrySvc,
		Converter:  converter,
		Metrics:    shoppingMetrics,
		Limits:     pagination.Limits{Default: cfg.Shopping.DefaultPageSize, Max: cfg.Shopping.MaxPageSize},
		MaxItems:   cfg.Shopping.MaxLinesPerList,
	})
	if err != nil {
		return routes.Services{}, err
	}

	menuSvc, err := menuplans.NewService(menuplans.ServiceParams{
		Logger:     logg,
		DB:         dbClient,
		Repo:       menuplans.NewRepository(conn),
		Lists:      listRepo,
		Recipes:    recipeSvc,
		Pantry:     pantrySvc,
		Classifier: classifier,
		Converter:  converter,
		Metrics:    shoppingMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Lists:     listSvc,
		Sharing:   sharingSvc,
		MenuPlans: menuSvc,
		Recipes:   recipeSvc,
		Pantry:    pantrySvc,
	}, nil
}
