package scheduling

import (
	"context"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
	"session-scheduling-backend/internal/timerange"
)

// ConflictDetector reports whether a time range collides with an active
// booking of the same consultant on the same day.
type ConflictDetector struct {
	store store.Store
}

func NewConflictDetector(s store.Store) *ConflictDetector {
	return &ConflictDetector{store: s}
}

// HasConflict checks [start, end) on date. excludeBookingID, when set, is
// left out of the comparison.
func (d *ConflictDetector) HasConflict(ctx context.Context, consultantID, date, start, end, excludeBookingID string) (bool, error) {
	if err := parseDate(date); err != nil {
		return false, err
	}
	r, err := parseRange(start, end)
	if err != nil {
		return false, err
	}
	return hasConflict(ctx, d.store, consultantID, date, r, excludeBookingID)
}

// hasConflict reads through st so that callers holding a schedule lock can
// pass their transaction-bound store.
func hasConflict(ctx context.Context, st store.Store, consultantID, date string, r timerange.Range, excludeBookingID string) (bool, error) {
	bookings, err := st.ActiveBookings(ctx, consultantID, date, excludeBookingID)
	if err != nil {
		return false, persistence(err)
	}
	for _, b := range bookings {
		if r.Overlaps(bookingRange(b)) {
			return true, nil
		}
	}
	return false, nil
}

func bookingRange(b model.SessionBooking) timerange.Range {
	return timerange.Range{Start: timerange.Clock(b.StartMinute), End: timerange.Clock(b.EndMinute)}
}
