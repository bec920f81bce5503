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
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tubeshop-backend/api/routes"
	"github.com/angelmondragon/tubeshop-backend/internal/bot"
	"github.com/angelmondragon/tubeshop-backend/internal/cart"
	"github.com/angelmondragon/tubeshop-backend/internal/datasync"
	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	"github.com/angelmondragon/tubeshop-backend/internal/notifications"
	"github.com/angelmondragon/tubeshop-backend/internal/orders"
	products "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/internal/seed"
	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
	"github.com/angelmondragon/tubeshop-backend/pkg/migrate"
	"github.com/angelmondragon/tubeshop-backend/pkg/redis"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

const shutdownTimeout = 20 * time.Second

func main() {
	decimal.MarshalJSONWithoutQuotes = true
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

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured; rate limiting, idempotency and sync lock disabled")
	}

	conn := dbClient.DB()
	registry := metrics.NewRegistry()

	productRepo := products.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)

	if cfg.FeatureFlags.SeedDemoData {
		if _, err := seed.Demo(ctx, productRepo, discountRepo, logg); err != nil {
			return err
		}
	}

	var syncLock datasync.Lock
	if redisClient != nil {
		lock, err := datasync.NewRedisLock(redisClient, redisClient.LockKey("sync"), cfg.Sync.LockTTL)
		if err != nil {
			return err
		}
		syncLock = lock
	}
	syncService, err := datasync.NewService(datasync.ServiceParams{
		Products:   productRepo,
		Tx:         dbClient,
		Logger:     logg,
		Lock:       syncLock,
		Metrics:    metrics.NewSyncMetrics(registry),
		DataDir:    cfg.Sync.DataDir,
		UpdatesDir: cfg.Sync.UpdatesDir,
	})
	if err != nil {
		return err
	}
	if cfg.FeatureFlags.ImportOnStartup {
		if _, err := syncService.ImportInitial(ctx); err != nil {
			return err
		}
	}

	tg := telegram.NewClient(cfg.Telegram.BotToken,
		telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
		telegram.WithTimeout(cfg.Telegram.RequestTimeout),
	)
	if !tg.Configured() {
		logg.Warn(ctx, "telegram bot token not configured; outbound messages are skipped")
	}

	pool, err := notifications.NewPool(tg, logg, metrics.NewNotificationMetrics(registry), notifications.Config{
		Workers:   cfg.Notifications.Workers,
		QueueSize: cfg.Notifications.QueueSize,
	})
	if err != nil {
		return err
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		return err
	}
	discountService, err := discounts.NewService(discountRepo)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, productRepo, discountService, dbClient)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.NewRepository(conn), cartRepo, productRepo, dbClient, pool, logg,
		orders.WithGuardStock(cfg.Checkout.GuardStock),
		orders.WithMetrics(metrics.NewCheckoutMetrics(registry)),
	)
	if err != nil {
		return err
	}
	botService, err := bot.NewService(tg, logg)
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Gatherer:  registry,
		Products:  productService,
		Discounts: discountService,
		Cart:      cartService,
		Orders:    orderService,
		Sync:      syncService,
		Bot:       botService,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(srvCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return multierr.Append(err, pool.Shutdown(context.Background()))
	case <-ctx.Done():
	}

	logg.Info(srvCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Combine(
		server.Shutdown(shutdownCtx),
		pool.Shutdown(shutdownCtx),
	)
}
