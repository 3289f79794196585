package scheduling

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
	"session-scheduling-backend/internal/timerange"
)

// Action is a caller-driven status change.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// transitions lists, per action, the statuses it may start from. Terminal
// statuses never appear here.
var transitions = map[Action][]model.BookingStatus{
	ActionConfirm:  {model.StatusScheduled},
	ActionCancel:   {model.StatusScheduled, model.StatusConfirmed},
	ActionComplete: {model.StatusConfirmed, model.StatusInProgress},
}

// CanTransition reports whether action is permitted from status.
func CanTransition(action Action, from model.BookingStatus) bool {
	return slices.Contains(transitions[action], from)
}

// BookingInput is a booking request. ScheduledEndTime may be omitted, in
// which case it is derived from DurationMinutes.
type BookingInput struct {
	SlotID             *string             `json:"slot_id"`
	ScheduledDate      string              `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledStartTime string              `json:"scheduled_start_time" validate:"required"`
	ScheduledEndTime   string              `json:"scheduled_end_time"`
	DurationMinutes    *int                `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	Timezone           string              `json:"timezone" validate:"omitempty,timezone"`
	SessionType        model.SessionType   `json:"session_type" validate:"omitempty,oneof=INITIAL_MEETING FOLLOW_UP REVIEW FINAL"`
	MeetingFormat      model.MeetingFormat `json:"meeting_format" validate:"omitempty,oneof=IN_PERSON VIDEO PHONE"`
	MeetingLocation    *string             `json:"meeting_location"`
	MeetingLink        *string             `json:"meeting_link" validate:"omitempty,url"`
}

// Feedback is the optional beneficiary rating attached on completion.
type Feedback struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"feedback"`
}

// BookingQuery filters the booking listings.
type BookingQuery struct {
	Status   model.BookingStatus `form:"status" validate:"omitempty,oneof=SCHEDULED CONFIRMED IN_PROGRESS COMPLETED CANCELLED NO_SHOW"`
	DateFrom string              `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string              `form:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// BookingService drives a booking from creation to a terminal status.
type BookingService struct {
	store     store.Store
	gate      *EngagementGate
	reminders *ReminderScheduler
	analytics *AnalyticsAggregator
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(s store.Store, gate *EngagementGate, reminders *ReminderScheduler, analytics *AnalyticsAggregator, log *zap.Logger) *BookingService {
	return &BookingService{
		store:     s,
		gate:      gate,
		reminders: reminders,
		analytics: analytics,
		log:       log,
		now:       time.Now,
	}
}

// CreateBooking checks the engagement, then inserts the booking under the
// consultant's schedule lock if no active booking overlaps it. Reminders are
// created afterwards and their failure does not fail the booking.
func (b *BookingService) CreateBooking(ctx context.Context, organizationID, engagementID, consultantID, beneficiaryID string, in BookingInput) (*model.SessionBooking, error) {
	if organizationID == "" || engagementID == "" || consultantID == "" || beneficiaryID == "" {
		return nil, invalidInput(errors.New("organization, engagement, consultant and beneficiary are required"))
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}

	gate, err := b.gate.ValidateForBooking(ctx, engagementID)
	if err != nil {
		return nil, err
	}

	rng, duration, err := bookingWindow(in)
	if err != nil {
		return nil, err
	}

	format := in.MeetingFormat
	if format == "" {
		format = model.FormatVideo
	}
	if format == model.FormatInPerson && (in.MeetingLocation == nil || strings.TrimSpace(*in.MeetingLocation) == "") {
		return nil, invalidInput(errors.New("meeting_location is required for in-person sessions"))
	}
	sessionType := in.SessionType
	if sessionType == "" {
		sessionType = model.SessionFollowUp
	}

	booking := &model.SessionBooking{
		ID:                 uuid.NewString(),
		EngagementID:       engagementID,
		ConsultantID:       consultantID,
		BeneficiaryID:      beneficiaryID,
		OrganizationID:     organizationID,
		SlotID:             in.SlotID,
		ScheduledDate:      in.ScheduledDate,
		ScheduledStartTime: rng.Start.String(),
		ScheduledEndTime:   rng.End.String(),
		StartMinute:        int(rng.Start),
		EndMinute:          int(rng.End),
		DurationMinutes:    duration,
		Timezone:           stringOr(in.Timezone, DefaultTimezone),
		SessionType:        sessionType,
		MeetingFormat:      format,
		MeetingLocation:    in.MeetingLocation,
		MeetingLink:        in.MeetingLink,
		Status:             model.StatusScheduled,
		PhaseAtBooking:     gate.Phase,
	}

	err = b.store.InScheduleLock(ctx, consultantID, in.ScheduledDate, func(tx store.Store) error {
		conflict, err := hasConflict(ctx, tx, consultantID, in.ScheduledDate, rng, "")
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: %s on %s", ErrBookingConflict, rng, in.ScheduledDate)
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			if errors.Is(err, store.ErrOverlap) {
				return fmt.Errorf("%w: %w", ErrBookingConflict, err)
			}
			return persistence(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingConflict) || errors.Is(err, ErrPersistence) {
			return nil, err
		}
		return nil, persistence(err)
	}

	b.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("consultant_id", consultantID),
		zap.String("date", booking.ScheduledDate),
		zap.Stringer("range", rng))

	bestEffort(b.log, "create_reminders", func() error {
		_, err := b.reminders.CreateRemindersFor(ctx, booking)
		return err
	}, zap.String("booking_id", booking.ID))

	return booking, nil
}

// bookingWindow resolves the requested range and duration. Without an end
// time the duration (default 120 minutes) decides the end. With one, the
// duration is taken from the range and an explicit duration must agree with it.
func bookingWindow(in BookingInput) (timerange.Range, int, error) {
	if in.ScheduledEndTime != "" {
		rng, err := parseRange(in.ScheduledStartTime, in.ScheduledEndTime)
		if err != nil {
			return timerange.Range{}, 0, err
		}
		if in.DurationMinutes != nil && *in.DurationMinutes != rng.Minutes() {
			return timerange.Range{}, 0, invalidInput(fmt.Errorf("duration %d does not match %s", *in.DurationMinutes, rng))
		}
		return rng, rng.Minutes(), nil
	}

	start, err := timerange.ParseClock(in.ScheduledStartTime)
	if err != nil {
		return timerange.Range{}, 0, invalidInput(err)
	}
	duration := intOr(in.DurationMinutes, DefaultDurationMinutes)
	end, err := start.Add(duration)
	if err != nil {
		return timerange.Range{}, 0, fmt.Errorf("%w: %w", ErrInvalidTimeRange, err)
	}
	rng, err := timerange.New(start, end)
	if err != nil {
		return timerange.Range{}, 0, fmt.Errorf("%w: %w", ErrInvalidTimeRange, err)
	}
	return rng, duration, nil
}

// ConfirmBooking moves a consultant's SCHEDULED booking to CONFIRMED.
func (b *BookingService) ConfirmBooking(ctx context.Context, bookingID, consultantID string) (*model.SessionBooking, error) {
	booking, err := b.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ConsultantID != consultantID {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	return b.transition(ctx, booking, ActionConfirm, map[string]any{
		"status":       model.StatusConfirmed,
		"confirmed_at": b.now().UTC(),
	})
}

// CompleteSession records the outcome of a held session. The day's analytics
// are recomputed afterwards on a best-effort basis.
func (b *BookingService) CompleteSession(ctx context.Context, bookingID string, attended bool, feedback *Feedback) (*model.SessionBooking, error) {
	if feedback != nil {
		if err := validate.Struct(feedback); err != nil {
			return nil, invalidInput(err)
		}
	}
	booking, err := b.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	status := model.StatusNoShow
	if attended {
		status = model.StatusCompleted
	}
	updates := map[string]any{
		"status":       status,
		"attended":     attended,
		"completed_at": b.now().UTC(),
	}
	if feedback != nil {
		if feedback.Rating != nil {
			updates["beneficiary_rating"] = *feedback.Rating
		}
		if feedback.Comment != nil {
			updates["beneficiary_feedback"] = *feedback.Comment
		}
	}

	updated, err := b.transition(ctx, booking, ActionComplete, updates)
	if err != nil {
		return nil, err
	}
	b.recomputeAnalytics(ctx, updated)
	return updated, nil
}

// CancelBooking cancels a SCHEDULED or CONFIRMED booking. Its reminders stay
// in place; delivery skips reminders of inactive bookings.
func (b *BookingService) CancelBooking(ctx context.Context, bookingID, reason string) (*model.SessionBooking, error) {
	booking, err := b.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":       model.StatusCancelled,
		"cancelled_at": b.now().UTC(),
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		updates["cancellation_reason"] = reason
	}

	updated, err := b.transition(ctx, booking, ActionCancel, updates)
	if err != nil {
		return nil, err
	}
	b.recomputeAnalytics(ctx, updated)
	return updated, nil
}

// transition writes updates only if the booking is still in a status the
// action allows. Losing a race to another writer is an invalid transition.
func (b *BookingService) transition(ctx context.Context, booking *model.SessionBooking, action Action, updates map[string]any) (*model.SessionBooking, error) {
	if !CanTransition(action, booking.Status) {
		return nil, fmt.Errorf("%w: cannot %s a %s booking", ErrInvalidTransition, action, booking.Status)
	}

	changed, err := b.store.TransitionBooking(ctx, booking.ID, transitions[action], updates)
	if err != nil {
		return nil, persistence(err)
	}
	if !changed {
		return nil, fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, booking.ID)
	}

	b.log.Info("booking status changed",
		zap.String("booking_id", booking.ID),
		zap.String("action", string(action)),
		zap.String("from", string(booking.Status)),
		zap.Any("to", updates["status"]))

	return b.GetBooking(ctx, booking.ID)
}

func (b *BookingService) recomputeAnalytics(ctx context.Context, booking *model.SessionBooking) {
	bestEffort(b.log, "recompute_analytics", func() error {
		_, err := b.analytics.Recompute(ctx, booking.ConsultantID, booking.OrganizationID, booking.ScheduledDate)
		return err
	}, zap.String("booking_id", booking.ID), zap.String("date", booking.ScheduledDate))
}

func (b *BookingService) GetBooking(ctx context.Context, bookingID string) (*model.SessionBooking, error) {
	booking, err := b.store.GetBooking(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return nil, persistence(err)
	}
	return booking, nil
}

func (b *BookingService) ListForConsultant(ctx context.Context, consultantID string, q BookingQuery) ([]model.SessionBooking, error) {
	return b.list(ctx, store.BookingFilter{ConsultantID: consultantID}, q)
}

func (b *BookingService) ListForBeneficiary(ctx context.Context, beneficiaryID string, q BookingQuery) ([]model.SessionBooking, error) {
	return b.list(ctx, store.BookingFilter{BeneficiaryID: beneficiaryID}, q)
}

func (b *BookingService) list(ctx context.Context, filter store.BookingFilter, q BookingQuery) ([]model.SessionBooking, error) {
	if filter.ConsultantID == "" && filter.BeneficiaryID == "" {
		return nil, invalidInput(errors.New("an owner id is required"))
	}
	if err := validate.Struct(q); err != nil {
		return nil, invalidInput(err)
	}
	if q.Status != "" {
		filter.Statuses = []model.BookingStatus{q.Status}
	}
	filter.DateFrom = q.DateFrom
	filter.DateTo = q.DateTo

	bookings, err := b.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, persistence(err)
	}
	return bookings, nil
}
