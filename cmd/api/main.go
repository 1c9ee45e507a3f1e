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

	"github.com/angelmondragon/zm-marketplace-backend/api/routes"
	"github.com/angelmondragon/zm-marketplace-backend/internal/approvals"
	"github.com/angelmondragon/zm-marketplace-backend/internal/artisans"
	"github.com/angelmondragon/zm-marketplace-backend/internal/auth"
	"github.com/angelmondragon/zm-marketplace-backend/internal/blog"
	"github.com/angelmondragon/zm-marketplace-backend/internal/orders"
	product "github.com/angelmondragon/zm-marketplace-backend/internal/products"
	"github.com/angelmondragon/zm-marketplace-backend/internal/reviews"
	"github.com/angelmondragon/zm-marketplace-backend/internal/users"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/auth/session"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/instance"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/migrate"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	gormDB := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(gormDB), logg)
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	usersRepo := users.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Users:          usersRepo,
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	taxRate, flatShipping, freeShippingFrom, err := cfg.Orders.Pricing()
	if err != nil {
		return routes.Services{}, err
	}
	ordersService, err := orders.NewService(orders.NewRepository(gormDB), dbClient, publisher, orders.NewSequencer(), orders.Options{
		Pricing: orders.PricingConfig{
			TaxRate:          taxRate,
			FlatShipping:     flatShipping,
			FreeShippingFrom: freeShippingFrom,
		},
		ReturnWindow: cfg.Orders.ReturnWindow(),
		MaxItems:     cfg.Orders.MaxItemsPerOrder,
		Metrics:      workflowMetrics,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	artisansService, err := artisans.NewService(artisans.NewRepository(gormDB), dbClient, publisher, logg)
	if err != nil {
		return routes.Services{}, err
	}
	productsService, err := product.NewService(product.NewRepository(gormDB), dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), dbClient, publisher)
	if err != nil {
		return routes.Services{}, err
	}
	blogService, err := blog.NewService(blog.NewRepository(gormDB), dbClient, publisher, workflowMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	approvalsService, err := approvals.NewService(approvals.NewRepository(gormDB), dbClient, publisher, workflowMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:      authService,
		Register:  registerService,
		Orders:    ordersService,
		Artisans:  artisansService,
		Products:  productsService,
		Reviews:   reviewsService,
		Blog:      blogService,
		Approvals: approvalsService,
	}, nil
}
