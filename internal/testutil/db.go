// Package testutil provides isolated databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/models"
)

var dbSeq atomic.Int64

// NewDB opens a migrated in-memory sqlite database private to the calling test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// FixedClock returns a clock that reports now and can be advanced.
type FixedClock struct {
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time { return c.now }

func (c *FixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// SeedEquipment inserts an equipment row and returns it.
func SeedEquipment(t *testing.T, database *gorm.DB, assetNumber, name, typ string) *models.Equipment {
	t.Helper()
	eq := &models.Equipment{
		AssetNumber: assetNumber,
		Name:        name,
		Type:        typ,
		Location:    "Room 101",
		Status:      models.EquipmentStatusNormal,
	}
	require.NoError(t, database.Create(eq).Error)
	return eq
}

// SeedUser inserts a user with an already-hashed password.
func SeedUser(t *testing.T, database *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Password: "$2a$04$placeholderplaceholderplaceholderplaceholderplace",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Role:     role,
	}
	require.NoError(t, database.Create(u).Error)
	return u
}
