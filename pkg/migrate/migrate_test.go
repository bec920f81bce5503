package migrate

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", GooseDialect("sqlite"))
	assert.Equal(t, "sqlite3", GooseDialect("SQLite3"))
	assert.Equal(t, "postgres", GooseDialect("postgres"))
	assert.Equal(t, "postgres", GooseDialect(""))
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_alter_products.sql"), []byte("-- +goose Up\n"), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "+goose Down")
}

func TestValidateFSAcceptsEmbeddedMigrations(t *testing.T) {
	require.NoError(t, ValidateFS(embedded, "migrations"))

	versions, err := Versions(embedded, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"20260301090000", "20260301090100", "20260301090200", "20260301090300"}, versions)
}

func TestValidateDirRequiresKnownAction(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_products_v2.sql"), []byte(body), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_create_a.sql"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_create_b.sql"), []byte(body), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version")
}

func TestValidateDirRejectsDialectOnlySQL(t *testing.T) {
	cases := map[string]string{
		"serial key":     "CREATE TABLE t (id bigserial PRIMARY KEY);",
		"jsonb":          "ALTER TABLE products ADD COLUMN attrs jsonb;",
		"cast shorthand": "UPDATE products SET sku = id::text;",
		"ilike":          "SELECT * FROM products WHERE gost ILIKE '%10704%';",
		"uuid default":   "CREATE TABLE t (id uuid DEFAULT gen_random_uuid());",
		"sqlite pragma":  "PRAGMA foreign_keys = ON;",
	}
	for name, stmt := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			body := "-- +goose Up\n" + stmt + "\n-- +goose Down\nSELECT 1;\n"
			require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_alter_products.sql"), []byte(body), 0o644))
			err := ValidateDir(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not portable")
		})
	}
}

func TestValidateDirIgnoresCommentedSQL(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nSELECT 1; -- was id::text on postgres\n-- +goose Down\nSELECT 1;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_alter_products.sql"), []byte(body), 0o644))
	require.NoError(t, ValidateDir(dir))
}

func TestCreateSQLMigrationRequiresAction(t *testing.T) {
	_, err := CreateSQLMigration(t.TempDir(), "pipe grades")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with")
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Pipe-Grades!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_pipe_grades.sql"))
	require.NoError(t, ValidateDir(dir))
}

func TestRunEmbeddedUpCreatesSchemaAndSeedsDiscounts(t *testing.T) {
	sqlDB := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, RunEmbedded(ctx, sqlDB, "sqlite", "up"))

	for _, table := range []string{"products", "discounts", "carts", "cart_items", "orders", "order_items"} {
		var name string
		err := sqlDB.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var count int
	require.NoError(t, sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM discounts WHERE is_active").Scan(&count))
	assert.Equal(t, 3, count)

	require.NoError(t, RunEmbedded(ctx, sqlDB, "sqlite", "down-to", "0"))
	err := sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM discounts").Scan(&count)
	require.Error(t, err)
}

func TestRunRequiresDB(t *testing.T) {
	require.Error(t, Run(context.Background(), nil, "postgres", "migrations", "up"))
	require.Error(t, RunEmbedded(context.Background(), nil, "postgres", "up"))
}

func TestMigrateToVersionRejectsBadVersion(t *testing.T) {
	sqlDB := openSQLite(t)
	require.Error(t, MigrateToVersion(context.Background(), sqlDB, "sqlite", "migrations", ""))
	require.Error(t, MigrateToVersion(context.Background(), sqlDB, "sqlite", "migrations", "abc"))
}

func TestMigrateToVersionStepsUp(t *testing.T) {
	sqlDB := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, MigrateToVersion(ctx, sqlDB, "sqlite", "migrations", "20260301090100"))

	var count int
	require.NoError(t, sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM discounts").Scan(&count))
	assert.Equal(t, 3, count)
	err := sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM carts").Scan(&count)
	require.Error(t, err)
}
