package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"session-scheduling-backend/internal/model"
)

var analyticsKey = []clause.Column{
	{Name: "consultant_id"},
	{Name: "organization_id"},
	{Name: "date"},
}

var analyticsCounters = []string{
	"total_sessions_scheduled",
	"total_sessions_completed",
	"total_sessions_no_show",
	"total_sessions_cancelled",
	"average_rating",
	"total_hours_completed",
}

// UpsertAnalytics writes the row keyed by (consultant, organization, date)
// and reloads it, so row.ID is the stored one even when the row existed.
func (s *gormStore) UpsertAnalytics(ctx context.Context, row *model.SessionAnalytics) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   analyticsKey,
			DoUpdates: clause.AssignmentColumns(analyticsCounters),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert analytics: %w", err)
		}

		var stored model.SessionAnalytics
		err = tx.Where("consultant_id = ? AND organization_id = ? AND date = ?",
			row.ConsultantID, row.OrganizationID, row.Date).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("failed to reload analytics: %w", err)
		}
		*row = stored
		return nil
	})
}

func (s *gormStore) ListAnalytics(ctx context.Context, filter AnalyticsFilter) ([]model.SessionAnalytics, error) {
	q := s.db.WithContext(ctx).Model(&model.SessionAnalytics{})
	if filter.ConsultantID != "" {
		q = q.Where("consultant_id = ?", filter.ConsultantID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.DateFrom != "" {
		q = q.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("date <= ?", filter.DateTo)
	}

	var rows []model.SessionAnalytics
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return rows, nil
}
