// Package docstoretest opens throwaway in-memory document stores for tests.
package docstoretest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ishaara/internal/database"
	"ishaara/internal/domain/docstore"
)

// Open returns a migrated in-memory sqlite database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:docstore_%s?mode=memory&cache=shared", name)
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := docstore.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// shared-cache sqlite reports table locks under concurrent writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// New returns a Store backed by Open(t).
func New(t testing.TB) docstore.Store {
	t.Helper()
	return docstore.NewStore(Open(t))
}
