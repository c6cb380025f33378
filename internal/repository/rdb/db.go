// Package rdb is the relational store: connection setup, schema migration and
// one repository per aggregate.
package rdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"prizetalk/internal/config"
	"prizetalk/internal/model"
)

// DefaultCategories are seeded on every migrate.
var DefaultCategories = []string{"General", "Booker Prize", "Golden Globes", "Grammy", "Nobel", "Oscars"}

// Open connects with the dialector named by cfg.DBDriver and pings once.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DatabaseDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseDSN))
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}
	log.Info("database connected", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// sqliteDSN turns on foreign keys so cascades behave like the server databases.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates missing tables and indexes and seeds categories. Safe to rerun.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.UserRole{},
		&model.UserProfile{},
		&model.Follow{},
		&model.Category{},
		&model.Tag{},
		&model.CommunityPost{},
		&model.PostComment{},
		&model.PostTag{},
		&model.Reaction{},
		&model.Bookmark{},
		&model.Group{},
		&model.GroupMember{},
		&model.GroupPost{},
		&model.GroupComment{},
		&model.GroupPostTag{},
		&model.GroupReaction{},
		&model.SocialOutbox{},
	); err != nil {
		return err
	}

	cats := make([]model.Category, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		cats = append(cats, model.Category{Name: name})
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&cats).Error
}
