package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tubeshop-backend/internal/datasync"
	products "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/migrate"
	"github.com/angelmondragon/tubeshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "updates", "sync command: import|updates")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "sync",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	report, err := run(ctx, cfg, logg, *cmd)
	if err != nil {
		logg.Error(ctx, "sync run failed", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, cmd string) (report any, err error) {
	if cmd != "import" && cmd != "updates" {
		return nil, fmt.Errorf("unknown -cmd value %q", cmd)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()
	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return nil, err
	}

	params := datasync.ServiceParams{
		Products:   products.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Logger:     logg,
		DataDir:    cfg.Sync.DataDir,
		UpdatesDir: cfg.Sync.UpdatesDir,
	}
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return nil, redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		lock, lockErr := datasync.NewRedisLock(redisClient, redisClient.LockKey("sync"), cfg.Sync.LockTTL)
		if lockErr != nil {
			return nil, lockErr
		}
		params.Lock = lock
	}

	svc, err := datasync.NewService(params)
	if err != nil {
		return nil, err
	}

	switch cmd {
	case "import":
		return svc.ImportInitial(ctx)
	default:
		return svc.ProcessAllUpdates(ctx)
	}
}
