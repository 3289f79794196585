package store

import (
	"context"

	"session-scheduling-backend/internal/model"
)

// GetEngagement reads an engagement; soft-deleted engagements are reported as ErrNotFound.
func (s *gormStore) GetEngagement(ctx context.Context, id string) (*model.Engagement, error) {
	var engagement model.Engagement
	if err := s.db.WithContext(ctx).First(&engagement, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &engagement, nil
}
