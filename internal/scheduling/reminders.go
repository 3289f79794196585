package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
	"session-scheduling-backend/internal/timerange"
)

// reminderOffsets are the pre-session reminders created for every booking.
var reminderOffsets = []struct {
	kind   model.ReminderType
	before time.Duration
}{
	{model.ReminderBeneficiary24h, 24 * time.Hour},
	{model.ReminderConsultant24h, 24 * time.Hour},
	{model.ReminderBeneficiary1h, time.Hour},
	{model.ReminderConsultant1h, time.Hour},
}

// ReminderScheduler derives reminder rows from a booking. It never sends anything.
type ReminderScheduler struct {
	store store.Store
}

func NewReminderScheduler(s store.Store) *ReminderScheduler {
	return &ReminderScheduler{store: s}
}

// BuildReminders computes the reminder rows for booking without storing them.
// Scheduled times are in UTC.
func BuildReminders(booking *model.SessionBooking) ([]model.SessionReminder, error) {
	loc, err := timerange.LoadLocation(booking.Timezone)
	if err != nil {
		return nil, invalidInput(err)
	}
	start, err := timerange.Instant(booking.ScheduledDate, timerange.Clock(booking.StartMinute), loc)
	if err != nil {
		return nil, invalidInput(err)
	}

	reminders := make([]model.SessionReminder, 0, len(reminderOffsets))
	for _, o := range reminderOffsets {
		recipient := booking.BeneficiaryID
		if o.kind.ForConsultant() {
			recipient = booking.ConsultantID
		}
		reminders = append(reminders, model.SessionReminder{
			ID:            uuid.NewString(),
			BookingID:     booking.ID,
			RecipientID:   recipient,
			ReminderType:  o.kind,
			ScheduledTime: start.Add(-o.before).UTC(),
		})
	}
	return reminders, nil
}

// CreateRemindersFor stores the four pre-session reminders in one batch.
func (s *ReminderScheduler) CreateRemindersFor(ctx context.Context, booking *model.SessionBooking) ([]model.SessionReminder, error) {
	reminders, err := BuildReminders(booking)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateReminders(ctx, reminders); err != nil {
		return nil, persistence(err)
	}
	return reminders, nil
}
