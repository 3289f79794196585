package db

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/model"
)

func TestInit_SQLiteMigratesAllTables(t *testing.T) {
	cfg := &config.DatabaseConfig{DSN: "sqlite:file::memory:", LogLevel: "silent"}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, gormDB.Migrator().HasIndex(&model.SessionAnalytics{}, "idx_analytics_key"))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInit_ExclusionConstraintSkippedOnSQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		DSN:                       "sqlite:file::memory:",
		LogLevel:                  "silent",
		EnableExclusionConstraint: true,
	}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	sqlDB.Close()
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestApplyExclusionDDL(t *testing.T) {
	gormDB, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS btree_gist")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP CONSTRAINT IF EXISTS " + ExclusionConstraint)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("int4range(start_minute, end_minute, '[)') WITH &&")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, applyExclusionDDL(gormDB))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyExclusionDDL_StopsOnFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS btree_gist")).
		WillReturnError(errors.New("permission denied"))

	err := applyExclusionDDL(gormDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want logger.LogLevel
	}{
		{"silent", logger.Silent},
		{"ERROR", logger.Error},
		{"info", logger.Info},
		{"warn", logger.Warn},
		{"", logger.Warn},
		{"verbose", logger.Warn},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, logLevel(tc.in))
		})
	}
}
