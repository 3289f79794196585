package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

const day = "2025-01-15"

func TestCreateBooking_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	_, err := env.engine.Slots.CreateSlot(ctx, testOrg, testConsultant, SlotInput{DateSpecific: strPtr(day), StartTime: "09:00", EndTime: "17:00"})
	require.NoError(t, err)

	a, err := env.book(ctx, day, "09:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, a.Status)

	_, err = env.book(ctx, day, "09:30", "10:30")
	assert.ErrorIs(t, err, ErrBookingConflict)

	c, err := env.book(ctx, day, "10:00", "11:00")
	require.NoError(t, err, "touching the previous session is not a conflict")
	assert.Equal(t, "10:00", c.ScheduledStartTime)
}

func TestCreateBooking_Defaults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	booking, err := env.engine.Bookings.CreateBooking(ctx, testOrg, testEngagement, testConsultant, testBeneficiary, BookingInput{
		ScheduledDate:      day,
		ScheduledStartTime: "9:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "09:00", booking.ScheduledStartTime)
	assert.Equal(t, "11:00", booking.ScheduledEndTime)
	assert.Equal(t, 120, booking.DurationMinutes)
	assert.Equal(t, "UTC", booking.Timezone)
	assert.Equal(t, model.SessionFollowUp, booking.SessionType)
	assert.Equal(t, model.FormatVideo, booking.MeetingFormat)
	assert.Equal(t, model.PhaseInvestigation, booking.PhaseAtBooking)

	stored, err := env.engine.Bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ScheduledEndTime, stored.ScheduledEndTime)
	assert.Equal(t, 540, stored.StartMinute)
	assert.Equal(t, 660, stored.EndMinute)
}

func TestCreateBooking_DurationFromRange(t *testing.T) {
	env := newTestEnv(t, nil)

	booking := env.mustBook(t, day, "14:15", "15:00")
	assert.Equal(t, 45, booking.DurationMinutes)

	matching, err := env.engine.Bookings.CreateBooking(context.Background(), testOrg, testEngagement, testConsultant, testBeneficiary,
		BookingInput{ScheduledDate: day, ScheduledStartTime: "16:00", ScheduledEndTime: "16:30", DurationMinutes: intPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, 30, matching.DurationMinutes)
}

func TestCreateBooking_Rejections(t *testing.T) {
	testCases := []struct {
		name    string
		input   BookingInput
		wantErr error
	}{
		{
			name:    "end before start",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "10:00", ScheduledEndTime: "09:00"},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "empty range",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "10:00", ScheduledEndTime: "10:00"},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "derived end past midnight",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "23:00"},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "duration disagrees with range",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "09:00", ScheduledEndTime: "10:00", DurationMinutes: intPtr(600)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "malformed date",
			input:   BookingInput{ScheduledDate: "2025-13-45", ScheduledStartTime: "10:00"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown session type",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "10:00", SessionType: "WORKSHOP"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "in person without location",
			input:   BookingInput{ScheduledDate: day, ScheduledStartTime: "10:00", MeetingFormat: model.FormatInPerson},
			wantErr: ErrInvalidInput,
		},
	}

	env := newTestEnv(t, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Bookings.CreateBooking(context.Background(), testOrg, testEngagement, testConsultant, testBeneficiary, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	all, err := env.engine.Bookings.ListForConsultant(context.Background(), testConsultant, BookingQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateBooking_Gate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.seedEngagement(t, "archived", model.PhaseArchived)
	env.seedEngagement(t, "completed", model.PhaseCompleted)
	env.seedEngagement(t, "deleted", model.PhasePreliminary)
	require.NoError(t, env.db.Delete(&model.Engagement{}, "id = ?", "deleted").Error)

	env.mustBook(t, day, "09:00", "10:00")

	testCases := []struct {
		engagementID string
		wantErr      error
	}{
		// Overlaps the existing booking; the gate must still win.
		{"archived", ErrEngagementNotBookable},
		{"completed", ErrEngagementNotBookable},
		{"deleted", ErrEngagementNotFound},
		{"missing", ErrEngagementNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.engagementID, func(t *testing.T) {
			_, err := env.engine.Bookings.CreateBooking(ctx, testOrg, tc.engagementID, testConsultant, testBeneficiary, BookingInput{
				ScheduledDate:      day,
				ScheduledStartTime: "09:30",
				ScheduledEndTime:   "10:30",
			})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NotErrorIs(t, err, ErrBookingConflict)
		})
	}

	result, err := env.engine.Gate.ValidateForBooking(ctx, testEngagement)
	require.NoError(t, err)
	assert.Equal(t, GateResult{Valid: true, Phase: model.PhaseInvestigation}, result)
}

func TestHasConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	existing := env.mustBook(t, day, "09:00", "10:00")
	cancelled := env.mustBook(t, day, "12:00", "13:00")
	_, err := env.engine.Bookings.CancelBooking(ctx, cancelled.ID, "")
	require.NoError(t, err)

	testCases := []struct {
		start, end string
		exclude    string
		want       bool
	}{
		{"08:00", "09:00", "", false},
		{"10:00", "11:00", "", false},
		{"08:30", "09:01", "", true},
		{"09:59", "10:30", "", true},
		{"09:15", "09:45", "", true},
		{"08:00", "11:00", "", true},
		{"09:00", "10:00", "", true},
		{"09:00", "10:00", existing.ID, false},
		{"12:00", "13:00", "", false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s-%s excl=%q", tc.start, tc.end, tc.exclude), func(t *testing.T) {
			got, err := env.engine.Conflicts.HasConflict(ctx, testConsultant, day, tc.start, tc.end, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	got, err := env.engine.Conflicts.HasConflict(ctx, "other-consultant", day, "09:00", "10:00", "")
	require.NoError(t, err)
	assert.False(t, got)

	got, err = env.engine.Conflicts.HasConflict(ctx, testConsultant, "2025-01-16", "09:00", "10:00", "")
	require.NoError(t, err)
	assert.False(t, got)

	_, err = env.engine.Conflicts.HasConflict(ctx, testConsultant, day, "10:00", "09:00", "")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestCreateBooking_ConcurrentRequestsBookOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	const n = 10

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes = make(chan string, n)
		failures  = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Every request overlaps every other one.
			booking, err := env.book(context.Background(), day, fmt.Sprintf("09:%02d", i), "10:30")
			if err != nil {
				failures <- err
				return
			}
			successes <- booking.ID
		}(i)
	}
	close(start)
	wg.Wait()
	close(successes)
	close(failures)

	assert.Len(t, successes, 1)
	for err := range failures {
		assert.ErrorIs(t, err, ErrBookingConflict)
	}

	active, err := env.store.ActiveBookings(context.Background(), testConsultant, day, "")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCanTransition(t *testing.T) {
	statuses := []model.BookingStatus{
		model.StatusScheduled, model.StatusConfirmed, model.StatusInProgress,
		model.StatusCompleted, model.StatusCancelled, model.StatusNoShow,
	}
	allowed := map[Action]map[model.BookingStatus]bool{
		ActionConfirm:  {model.StatusScheduled: true},
		ActionCancel:   {model.StatusScheduled: true, model.StatusConfirmed: true},
		ActionComplete: {model.StatusConfirmed: true, model.StatusInProgress: true},
	}

	for action, from := range allowed {
		for _, status := range statuses {
			assert.Equal(t, from[status], CanTransition(action, status), "%s from %s", action, status)
			if status.Terminal() {
				assert.False(t, CanTransition(action, status), "%s from terminal %s", action, status)
			}
		}
	}
}

func TestTerminalBookingsAreImmutable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	svc := env.engine.Bookings

	for _, status := range []model.BookingStatus{model.StatusCompleted, model.StatusNoShow, model.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			booking := env.mustBook(t, day, "09:00", "10:00")
			env.setStatus(t, booking.ID, status)

			_, err := svc.ConfirmBooking(ctx, booking.ID, testConsultant)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			_, err = svc.CompleteSession(ctx, booking.ID, true, nil)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			_, err = svc.CancelBooking(ctx, booking.ID, "too late")
			assert.ErrorIs(t, err, ErrInvalidTransition)

			stored, err := svc.GetBooking(ctx, booking.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
			assert.Nil(t, stored.ConfirmedAt)
			assert.Nil(t, stored.CancellationReason)
		})
	}
}

func TestConfirmBooking(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	svc := env.engine.Bookings
	fixed := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	booking := env.mustBook(t, day, "09:00", "10:00")

	_, err := svc.ConfirmBooking(ctx, booking.ID, "another-consultant")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	_, err = svc.ConfirmBooking(ctx, "missing", testConsultant)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	confirmed, err := svc.ConfirmBooking(ctx, booking.ID, testConsultant)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, fixed.Equal(*confirmed.ConfirmedAt))

	_, err = svc.ConfirmBooking(ctx, booking.ID, testConsultant)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	svc := env.engine.Bookings

	attended := env.mustBook(t, day, "09:00", "10:30")
	scheduled := env.mustBook(t, day, "13:00", "14:00")
	_, err := svc.ConfirmBooking(ctx, attended.ID, testConsultant)
	require.NoError(t, err)

	_, err = svc.CompleteSession(ctx, attended.ID, true, &Feedback{Rating: intPtr(6)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	done, err := svc.CompleteSession(ctx, attended.ID, true, &Feedback{Rating: intPtr(4), Comment: strPtr("helpful")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.Attended)
	assert.True(t, *done.Attended)
	require.NotNil(t, done.BeneficiaryRating)
	assert.Equal(t, 4, *done.BeneficiaryRating)
	assert.NotNil(t, done.CompletedAt)

	missed := env.mustBook(t, day, "11:00", "12:00")
	env.setStatus(t, missed.ID, model.StatusInProgress)
	noShow, err := svc.CompleteSession(ctx, missed.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoShow, noShow.Status)

	_, err = svc.CompleteSession(ctx, scheduled.ID, true, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rows, err := env.engine.Analytics.ListAnalytics(ctx, testConsultant, testOrg, AnalyticsQuery{DateFrom: day, DateTo: day})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].TotalSessionsScheduled)
	assert.Equal(t, 1, rows[0].TotalSessionsCompleted)
	assert.Equal(t, 1, rows[0].TotalSessionsNoShow)
	assert.InDelta(t, 1.5, rows[0].TotalHoursCompleted, 1e-9)
	require.NotNil(t, rows[0].AverageRating)
	assert.InDelta(t, 4.0, *rows[0].AverageRating, 1e-9)
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	svc := env.engine.Bookings

	booking := env.mustBook(t, day, "09:00", "10:00")
	_, err := svc.ConfirmBooking(ctx, booking.ID, testConsultant)
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(ctx, booking.ID, "  beneficiary is ill ")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "beneficiary is ill", *cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.CancelBooking(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// The freed time can be booked again.
	env.mustBook(t, day, "09:00", "10:00")
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	svc := env.engine.Bookings

	late := env.mustBook(t, "2025-01-16", "08:00", "09:00")
	second := env.mustBook(t, day, "11:00", "12:00")
	first := env.mustBook(t, day, "09:00", "10:00")
	_, err := svc.CancelBooking(ctx, second.ID, "")
	require.NoError(t, err)

	got, err := svc.ListForBeneficiary(ctx, testBeneficiary, BookingQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{first.ID, second.ID, late.ID}, []string{got[0].ID, got[1].ID, got[2].ID})

	got, err = svc.ListForConsultant(ctx, testConsultant, BookingQuery{Status: model.StatusScheduled, DateTo: day})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	_, err = svc.ListForConsultant(ctx, testConsultant, BookingQuery{Status: "LOST"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateBooking_RemindersAreDeterministic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	booking := env.mustBook(t, "2025-01-15", "09:00", "10:00")

	reminders, err := env.store.RemindersFor(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 4)

	dayBefore := time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC)
	hourBefore := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	want := map[model.ReminderType]struct {
		at        time.Time
		recipient string
	}{
		model.ReminderBeneficiary24h: {dayBefore, testBeneficiary},
		model.ReminderConsultant24h:  {dayBefore, testConsultant},
		model.ReminderBeneficiary1h:  {hourBefore, testBeneficiary},
		model.ReminderConsultant1h:   {hourBefore, testConsultant},
	}
	for _, r := range reminders {
		w, ok := want[r.ReminderType]
		require.True(t, ok, "unexpected reminder type %s", r.ReminderType)
		assert.True(t, w.at.Equal(r.ScheduledTime), "%s at %s", r.ReminderType, r.ScheduledTime)
		assert.Equal(t, w.recipient, r.RecipientID)
		assert.Nil(t, r.SentAt)
		assert.False(t, r.Failed)
		assert.Zero(t, r.RetryCount)
		delete(want, r.ReminderType)
	}
	assert.Empty(t, want)
}

func TestBuildReminders_UsesBookingTimezone(t *testing.T) {
	reminders, err := BuildReminders(&model.SessionBooking{
		ID:            "b-1",
		ConsultantID:  testConsultant,
		BeneficiaryID: testBeneficiary,
		ScheduledDate: "2025-01-15",
		StartMinute:   9 * 60,
		Timezone:      "Europe/Paris",
	})
	require.NoError(t, err)
	require.Len(t, reminders, 4)

	assert.Equal(t, model.ReminderBeneficiary24h, reminders[0].ReminderType)
	assert.True(t, time.Date(2025, 1, 14, 8, 0, 0, 0, time.UTC).Equal(reminders[0].ScheduledTime))
	assert.Equal(t, model.ReminderBeneficiary1h, reminders[2].ReminderType)
	assert.True(t, time.Date(2025, 1, 15, 7, 0, 0, 0, time.UTC).Equal(reminders[2].ScheduledTime))
	assert.Equal(t, time.UTC, reminders[0].ScheduledTime.Location())
	for _, r := range reminders {
		assert.NotEqual(t, model.ReminderBeneficiaryPostSession, r.ReminderType)
	}
}

// failingStore breaks selected side-effect writes.
type failingStore struct {
	store.Store
	failReminders bool
	failAnalytics bool
}

func (f *failingStore) CreateReminders(ctx context.Context, reminders []model.SessionReminder) error {
	if f.failReminders {
		return errors.New("reminder table unavailable")
	}
	return f.Store.CreateReminders(ctx, reminders)
}

func (f *failingStore) UpsertAnalytics(ctx context.Context, row *model.SessionAnalytics) error {
	if f.failAnalytics {
		return errors.New("analytics table unavailable")
	}
	return f.Store.UpsertAnalytics(ctx, row)
}

func TestSideEffectFailuresAreLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(s store.Store) store.Store {
		return &failingStore{Store: s, failReminders: true, failAnalytics: true}
	})

	booking, err := env.book(ctx, day, "09:00", "10:00")
	require.NoError(t, err)

	stored, err := env.engine.Bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err, "the booking survives a reminder failure")
	assert.Equal(t, model.StatusScheduled, stored.Status)

	_, err = env.engine.Bookings.ConfirmBooking(ctx, booking.ID, testConsultant)
	require.NoError(t, err)
	done, err := env.engine.Bookings.CompleteSession(ctx, booking.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	failures := env.logs.FilterMessage("side effect failed").All()
	require.Len(t, failures, 2)
	assert.Equal(t, "create_reminders", failures[0].ContextMap()["op"])
	assert.Equal(t, "recompute_analytics", failures[1].ContextMap()["op"])
	assert.Equal(t, booking.ID, failures[0].ContextMap()["booking_id"])
}
