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

	"github.com/angelmondragon/ecommerce-backend/api/routes"
	"github.com/angelmondragon/ecommerce-backend/internal/auth"
	"github.com/angelmondragon/ecommerce-backend/internal/cart"
	"github.com/angelmondragon/ecommerce-backend/internal/categories"
	products "github.com/angelmondragon/ecommerce-backend/internal/products"
	"github.com/angelmondragon/ecommerce-backend/internal/roles"
	"github.com/angelmondragon/ecommerce-backend/internal/users"
	"github.com/angelmondragon/ecommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/instance"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/metrics"
	"github.com/angelmondragon/ecommerce-backend/pkg/migrate"
	"github.com/angelmondragon/ecommerce-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = db.DriverSQLite
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := buildServices(cfg, logg, dbClient, sessionManager, registry)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"driver":   dbClient.Driver(),
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, metrics.NewHTTPMetrics(registry), dbClient, redisClient, sessionManager, services),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, reg prometheus.Registerer) (routes.Services, error) {
	conn := dbClient.DB()
	productRepo := products.NewRepository(conn)
	usersRepo := users.NewRepository(conn)
	rolesRepo := roles.NewRepository(conn)
	categoriesRepo := categories.NewRepository(conn)

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:            cart.NewRepository(conn),
		Tx:              dbClient,
		Products:        productRepo,
		Users:           usersRepo,
		Metrics:         metrics.NewCartMetrics(reg),
		Logger:          logg,
		ConflictRetries: cfg.Cart.ConflictRetries,
	})
	if err != nil {
		return routes.Services{}, err
	}
	productService, err := products.NewService(productRepo, dbClient, categoriesRepo, cartService)
	if err != nil {
		return routes.Services{}, err
	}
	categoryService, err := categories.NewService(categoriesRepo)
	if err != nil {
		return routes.Services{}, err
	}
	roleService, err := roles.NewService(rolesRepo)
	if err != nil {
		return routes.Services{}, err
	}
	userService, err := users.NewService(usersRepo, dbClient, rolesRepo, cartService)
	if err != nil {
		return routes.Services{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:       authService,
		Register:   registerService,
		Cart:       cartService,
		Products:   productService,
		Categories: categoryService,
		Roles:      roleService,
		Users:      userService,
	}, nil
}
