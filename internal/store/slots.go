package store

import (
	"context"
	"fmt"

	"session-scheduling-backend/internal/model"
)

// slotColumns are the columns an UpdateSlot call may rewrite.
var slotColumns = []string{
	"day_of_week", "date_specific", "start_time", "end_time", "duration_minutes",
	"max_concurrent_bookings", "timezone", "is_recurring", "recurring_until", "is_available",
}

func (s *gormStore) CreateSlot(ctx context.Context, slot *model.AvailabilitySlot) error {
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (s *gormStore) GetSlot(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	var slot model.AvailabilitySlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &slot, nil
}

func (s *gormStore) UpdateSlot(ctx context.Context, slot *model.AvailabilitySlot) error {
	res := s.db.WithContext(ctx).Model(slot).Select(slotColumns).Updates(slot)
	if res.Error != nil {
		return fmt.Errorf("failed to update slot %s: %w", slot.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSlot soft-deletes the slot; bookings keep pointing at it.
func (s *gormStore) DeleteSlot(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.AvailabilitySlot{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete slot %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ListSlots(ctx context.Context, filter SlotFilter) ([]model.AvailabilitySlot, error) {
	q := s.db.WithContext(ctx).Model(&model.AvailabilitySlot{})
	if filter.ConsultantID != "" {
		q = q.Where("consultant_id = ?", filter.ConsultantID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.OnlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	if filter.DayOfWeek != nil {
		q = q.Where("day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.DateFrom != "" {
		q = q.Where("date_specific >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("date_specific <= ?", filter.DateTo)
	}

	var slots []model.AvailabilitySlot
	// Weekly slots first on every backend; NULL ordering differs.
	err := q.Order("date_specific IS NOT NULL").
		Order("date_specific ASC").
		Order("day_of_week ASC").
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
