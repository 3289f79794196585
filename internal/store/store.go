package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"session-scheduling-backend/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist or is soft-deleted.
	ErrNotFound = errors.New("record not found")
	// ErrOverlap is returned when the database rejects a booking that overlaps
	// another active booking of the same consultant.
	ErrOverlap = errors.New("booking overlaps an active booking")
)

// Store defines the interface for all database operations.
type Store interface {
	CreateSlot(ctx context.Context, slot *model.AvailabilitySlot) error
	GetSlot(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, slot *model.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, id string) error
	ListSlots(ctx context.Context, filter SlotFilter) ([]model.AvailabilitySlot, error)

	CreateBooking(ctx context.Context, booking *model.SessionBooking) error
	GetBooking(ctx context.Context, id string) (*model.SessionBooking, error)
	// TransitionBooking applies updates only while the booking's status is one
	// of from. It reports whether a row was changed.
	TransitionBooking(ctx context.Context, id string, from []model.BookingStatus, updates map[string]any) (bool, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.SessionBooking, error)
	ActiveBookings(ctx context.Context, consultantID, date, excludeID string) ([]model.SessionBooking, error)

	CreateReminders(ctx context.Context, reminders []model.SessionReminder) error
	GetReminder(ctx context.Context, id string) (*model.SessionReminder, error)
	RemindersFor(ctx context.Context, bookingID string) ([]model.SessionReminder, error)
	DueReminders(ctx context.Context, now time.Time, maxRetries, limit int) ([]model.SessionReminder, error)
	// MarkReminderSent stamps a reminder that is still unsent. A reminder that
	// is missing or already sent yields ErrNotFound.
	MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error
	MarkReminderFailed(ctx context.Context, id string, reason string) error

	UpsertAnalytics(ctx context.Context, row *model.SessionAnalytics) error
	ListAnalytics(ctx context.Context, filter AnalyticsFilter) ([]model.SessionAnalytics, error)

	GetEngagement(ctx context.Context, id string) (*model.Engagement, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	SubscriptionsFor(ctx context.Context, ownerID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error

	// InScheduleLock runs fn in a transaction that holds the schedule lock of
	// one consultant day. fn must use the Store it is given.
	InScheduleLock(ctx context.Context, consultantID, date string, fn func(Store) error) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	locks *scheduleLocks
}

// NewGormStore creates a new GORM-backed store. Schedule locks are held per
// store, so a process should share one instance.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, locks: &scheduleLocks{}}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
