// Package dbtest opens isolated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

var seq atomic.Int64

// Open returns a migrated connection to a fresh in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tubeshop_test_%d?mode=memory&cache=shared&_fk=1", seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
