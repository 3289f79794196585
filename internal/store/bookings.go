package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"session-scheduling-backend/internal/model"
)

// pgExclusionViolation is the SQLSTATE raised by an EXCLUDE constraint.
const pgExclusionViolation = "23P01"

func (s *gormStore) CreateBooking(ctx context.Context, booking *model.SessionBooking) error {
	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return ErrOverlap
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.SessionBooking, error) {
	var booking model.SessionBooking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (s *gormStore) TransitionBooking(ctx context.Context, id string, from []model.BookingStatus, updates map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.SessionBooking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update booking %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.SessionBooking, error) {
	q := s.db.WithContext(ctx).Model(&model.SessionBooking{})
	if filter.ConsultantID != "" {
		q = q.Where("consultant_id = ?", filter.ConsultantID)
	}
	if filter.BeneficiaryID != "" {
		q = q.Where("beneficiary_id = ?", filter.BeneficiaryID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.DateFrom != "" {
		q = q.Where("scheduled_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("scheduled_date <= ?", filter.DateTo)
	}

	var bookings []model.SessionBooking
	err := q.Order("scheduled_date ASC").
		Order("scheduled_start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) ActiveBookings(ctx context.Context, consultantID, date, excludeID string) ([]model.SessionBooking, error) {
	q := s.db.WithContext(ctx).
		Where("consultant_id = ? AND scheduled_date = ?", consultantID, date).
		Where("status IN ?", model.ActiveStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var bookings []model.SessionBooking
	if err := q.Order("start_minute ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to load active bookings: %w", err)
	}
	return bookings, nil
}
