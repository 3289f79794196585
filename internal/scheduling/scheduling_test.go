package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/db"
	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

const (
	testOrg         = "org-1"
	testConsultant  = "consultant-1"
	testBeneficiary = "beneficiary-1"
	testEngagement  = "engagement-1"
)

type testEnv struct {
	engine *Engine
	store  store.Store
	db     *gorm.DB
	logs   *observer.ObservedLogs
}

// newTestEnv builds an engine over a private in-memory SQLite database.
// wrap, when given, decorates the store seen by the engine.
func newTestEnv(t *testing.T, wrap func(store.Store) store.Store) *testEnv {
	t.Helper()
	gormDB, err := db.Open(&config.DatabaseConfig{DSN: "sqlite:file::memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(db.Models()...))
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.NewGormStore(gormDB)
	if wrap != nil {
		st = wrap(st)
	}
	core, logs := observer.New(zapcore.DebugLevel)

	env := &testEnv{
		engine: NewEngine(st, st, zap.New(core)),
		store:  st,
		db:     gormDB,
		logs:   logs,
	}
	env.seedEngagement(t, testEngagement, model.PhaseInvestigation)
	return env
}

func (e *testEnv) seedEngagement(t *testing.T, id string, phase model.EngagementPhase) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Engagement{
		ID:             id,
		OrganizationID: testOrg,
		BeneficiaryID:  testBeneficiary,
		ConsultantID:   testConsultant,
		Phase:          phase,
	}).Error)
}

func (e *testEnv) book(ctx context.Context, date, start, end string) (*model.SessionBooking, error) {
	return e.engine.Bookings.CreateBooking(ctx, testOrg, testEngagement, testConsultant, testBeneficiary, BookingInput{
		ScheduledDate:      date,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
	})
}

func (e *testEnv) mustBook(t *testing.T, date, start, end string) *model.SessionBooking {
	t.Helper()
	booking, err := e.book(context.Background(), date, start, end)
	require.NoError(t, err)
	return booking
}

func (e *testEnv) setStatus(t *testing.T, bookingID string, status model.BookingStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.SessionBooking{}).Where("id = ?", bookingID).Update("status", status).Error)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
