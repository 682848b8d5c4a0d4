// Package testutils provides database helpers for API tests.
package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fikatrip/planner/orm"
)

// SetupTestDB opens an in-memory database with the full schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&orm.CatalogPOI{}, &orm.ItineraryRecord{}, &orm.APICache{})
	require.NoError(t, err)

	return db
}
