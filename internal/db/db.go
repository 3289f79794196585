package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/model"
)

// SQLitePrefix marks a DSN that should be opened with the embedded SQLite driver.
const SQLitePrefix = "sqlite:"

// ExclusionConstraint is the name of the optional Postgres constraint that
// rejects overlapping active bookings for the same consultant and day.
const ExclusionConstraint = "session_bookings_no_overlap"

// Models lists every table the scheduler owns, in migration order.
func Models() []any {
	return []any{
		&model.Engagement{},
		&model.AvailabilitySlot{},
		&model.SessionBooking{},
		&model.SessionReminder{},
		&model.SessionAnalytics{},
		&model.PushSubscription{},
	}
}

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		if db.Dialector.Name() != "postgres" {
			log.Warn("exclusion constraint requested on a non-postgres database, skipping",
				zap.String("dialect", db.Dialector.Name()))
		} else {
			log.Info("applying booking exclusion constraint")
			if err := applyExclusionDDL(db); err != nil {
				log.Warn("failed to apply exclusion constraint, relying on schedule locks", zap.Error(err))
			}
		}
	}

	log.Info("database initialization complete")
	return db, nil
}

// Open connects without migrating. SQLite DSNs are pinned to a single
// connection since the driver serializes writers anyway.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	}

	var dialector gorm.Dialector
	sqliteDSN, isSQLite := strings.CutPrefix(cfg.DSN, SQLitePrefix)
	if isSQLite {
		dialector = sqlite.Open(sqliteDSN)
	} else {
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if isSQLite {
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func exclusionDDL() []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE session_bookings DROP CONSTRAINT IF EXISTS " + ExclusionConstraint + ";",

		// Half-open minute ranges so back-to-back sessions are allowed.
		"ALTER TABLE session_bookings ADD CONSTRAINT " + ExclusionConstraint + " " +
			"EXCLUDE USING gist (consultant_id WITH =, scheduled_date WITH =, " +
			"int4range(start_minute, end_minute, '[)') WITH &&) " +
			"WHERE (status IN ('SCHEDULED', 'CONFIRMED', 'IN_PROGRESS') AND deleted_at IS NULL);",
	}
}

func applyExclusionDDL(db *gorm.DB) error {
	for _, ddl := range exclusionDDL() {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
