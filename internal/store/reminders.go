package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"session-scheduling-backend/internal/model"
)

// CreateReminders inserts the batch in a single statement.
func (s *gormStore) CreateReminders(ctx context.Context, reminders []model.SessionReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Omit("Booking").Create(&reminders).Error; err != nil {
		return fmt.Errorf("failed to create reminders: %w", err)
	}
	return nil
}

func (s *gormStore) GetReminder(ctx context.Context, id string) (*model.SessionReminder, error) {
	var reminder model.SessionReminder
	if err := s.db.WithContext(ctx).First(&reminder, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reminder, nil
}

func (s *gormStore) RemindersFor(ctx context.Context, bookingID string) ([]model.SessionReminder, error) {
	var reminders []model.SessionReminder
	err := s.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("scheduled_time ASC").
		Order("reminder_type ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders for booking %s: %w", bookingID, err)
	}
	return reminders, nil
}

// DueReminders returns unsent reminders whose time has come, skipping those
// that exhausted their retries or whose booking is no longer active.
func (s *gormStore) DueReminders(ctx context.Context, now time.Time, maxRetries, limit int) ([]model.SessionReminder, error) {
	var reminders []model.SessionReminder
	err := s.db.WithContext(ctx).
		Joins("JOIN session_bookings ON session_bookings.id = session_reminders.booking_id").
		Where("session_bookings.deleted_at IS NULL AND session_bookings.status IN ?", model.ActiveStatuses).
		Where("session_reminders.sent_at IS NULL").
		Where("session_reminders.scheduled_time <= ?", now.UTC()).
		Where("session_reminders.retry_count < ?", maxRetries).
		Order("session_reminders.scheduled_time ASC").
		Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load due reminders: %w", err)
	}
	return reminders, nil
}

func (s *gormStore) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	return s.updateReminder(ctx, id, map[string]any{
		"sent_at":       sentAt.UTC(),
		"failed":        false,
		"error_message": nil,
	}, unsent)
}

func (s *gormStore) MarkReminderFailed(ctx context.Context, id string, reason string) error {
	return s.updateReminder(ctx, id, map[string]any{
		"failed":        true,
		"error_message": reason,
		"retry_count":   gorm.Expr("retry_count + 1"),
	})
}

func unsent(db *gorm.DB) *gorm.DB {
	return db.Where("sent_at IS NULL")
}

func (s *gormStore) updateReminder(ctx context.Context, id string, updates map[string]any, scopes ...func(*gorm.DB) *gorm.DB) error {
	res := s.db.WithContext(ctx).
		Model(&model.SessionReminder{}).
		Scopes(scopes...).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update reminder %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
