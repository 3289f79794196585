package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

// AnalyticsQuery bounds ListAnalytics by date.
type AnalyticsQuery struct {
	DateFrom string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// AnalyticsAggregator maintains the daily per-consultant rollup.
type AnalyticsAggregator struct {
	store store.Store
}

func NewAnalyticsAggregator(s store.Store) *AnalyticsAggregator {
	return &AnalyticsAggregator{store: s}
}

// Summarize derives the rollup counters from a day's bookings.
func Summarize(bookings []model.SessionBooking) model.SessionAnalytics {
	var (
		row          model.SessionAnalytics
		ratingSum    int
		ratingCount  int
		minutesSpent int
	)
	for _, b := range bookings {
		row.TotalSessionsScheduled++
		switch b.Status {
		case model.StatusCompleted:
			row.TotalSessionsCompleted++
			minutesSpent += b.DurationMinutes
			if b.BeneficiaryRating != nil {
				ratingSum += *b.BeneficiaryRating
				ratingCount++
			}
		case model.StatusNoShow:
			row.TotalSessionsNoShow++
		case model.StatusCancelled:
			row.TotalSessionsCancelled++
		}
	}
	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		row.AverageRating = &avg
	}
	row.TotalHoursCompleted = float64(minutesSpent) / 60
	return row
}

// Recompute rebuilds the row for (consultant, organization, date) from the
// current bookings and upserts it. Running it again without booking changes
// leaves the row unchanged.
func (a *AnalyticsAggregator) Recompute(ctx context.Context, consultantID, organizationID, date string) (*model.SessionAnalytics, error) {
	if err := parseDate(date); err != nil {
		return nil, err
	}
	bookings, err := a.store.ListBookings(ctx, store.BookingFilter{
		ConsultantID:   consultantID,
		OrganizationID: organizationID,
		DateFrom:       date,
		DateTo:         date,
	})
	if err != nil {
		return nil, persistence(err)
	}

	row := Summarize(bookings)
	row.ID = uuid.NewString()
	row.ConsultantID = consultantID
	row.OrganizationID = organizationID
	row.Date = date

	if err := a.store.UpsertAnalytics(ctx, &row); err != nil {
		return nil, persistence(err)
	}
	return &row, nil
}

func (a *AnalyticsAggregator) ListAnalytics(ctx context.Context, consultantID, organizationID string, q AnalyticsQuery) ([]model.SessionAnalytics, error) {
	if consultantID == "" || organizationID == "" {
		return nil, invalidInput(errors.New("consultant and organization are required"))
	}
	if err := validate.Struct(q); err != nil {
		return nil, invalidInput(err)
	}
	rows, err := a.store.ListAnalytics(ctx, store.AnalyticsFilter{
		ConsultantID:   consultantID,
		OrganizationID: organizationID,
		DateFrom:       q.DateFrom,
		DateTo:         q.DateTo,
	})
	if err != nil {
		return nil, persistence(err)
	}
	return rows, nil
}
