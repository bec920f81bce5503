package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps dialect and base FS as package globals.
var gooseMu sync.Mutex

// GooseDialect maps a gorm dialector name onto the goose dialect.
func GooseDialect(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return "postgres"
	}
}

// Run executes a standard goose command against the migrations in dir.
func Run(ctx context.Context, db *sql.DB, dialect, dir, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(GooseDialect(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// RunEmbedded executes a goose command against the migrations compiled into the binary.
func RunEmbedded(ctx context.Context, db *sql.DB, dialect, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(GooseDialect(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, "migrations", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(GooseDialect(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
