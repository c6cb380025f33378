// Package rdbtest opens throwaway migrated SQLite databases for tests.
package rdbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/config"
	"prizetalk/internal/model"
	"prizetalk/internal/repository/rdb"
)

// Open returns a migrated database in a temp dir, closed when t ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := config.Config{
		DBDriver:       "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "test.db"),
		DBMaxOpenConns: 4,
		DBMaxIdleConns: 2,
	}
	db, err := rdb.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, rdb.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// User inserts a user with the given role and an empty profile.
func User(t testing.TB, db *gorm.DB, name, role string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@prizetalk.test", PasswordHash: "x"}
	repo := &rdb.UserRepository{DB: db}
	require.NoError(t, repo.Create(context.Background(), u, role))
	return u
}

// Category returns the id of a seeded category.
func Category(t testing.TB, db *gorm.DB) uint64 {
	t.Helper()
	var c model.Category
	require.NoError(t, db.Where("name = ?", "General").First(&c).Error)
	return c.ID
}
