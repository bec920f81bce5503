package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name for create, e.g. add_products_sku_index")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch files and run without a database or config.
	switch *cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(*dir, *name)
		exitOn(err, "create migration")
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(migrate.ValidateDir(*dir), "validate migrations")
		fmt.Println("migrations valid:", *dir)
		return
	}

	cfg, err := config.Load()
	exitOn(err, "load config")

	logg := logger.New(logger.Options{
		ServiceName: "tubeshop-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"dir":      *dir,
		"embedded": *embedded,
	})

	if err := run(ctx, cfg, logg, *cmd, *dir, *version, *embedded); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate done")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, cmd, dir, version string, embedded bool) error {
	if !embedded {
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	dialect := dbClient.Dialect()

	switch cmd {
	case "up", "down", "status":
		if embedded {
			return migrate.RunEmbedded(ctx, sqlDB, dialect, cmd)
		}
		return migrate.Run(ctx, sqlDB, dialect, dir, cmd)
	case "version":
		if embedded {
			return fmt.Errorf("-cmd=version works on -dir only")
		}
		known, err := migrate.Versions(os.DirFS(dir), ".")
		if err != nil {
			return err
		}
		if version != "0" && !slices.Contains(known, version) {
			return fmt.Errorf("unknown version %q, have %s", version, strings.Join(known, ", "))
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, dir, version)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
}

func exitOn(err error, action string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
