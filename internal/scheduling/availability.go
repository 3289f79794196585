package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

const (
	DefaultTimezone              = "UTC"
	DefaultDurationMinutes       = 120
	DefaultMaxConcurrentBookings = 1
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SlotInput describes a new availability window. Exactly one of DayOfWeek
// (weekly) and DateSpecific (one-off) must be set.
type SlotInput struct {
	DayOfWeek             *int    `json:"day_of_week" validate:"omitempty,min=0,max=6,excluded_with=DateSpecific"`
	DateSpecific          *string `json:"date_specific" validate:"omitempty,datetime=2006-01-02"`
	StartTime             string  `json:"start_time" validate:"required"`
	EndTime               string  `json:"end_time" validate:"required"`
	DurationMinutes       *int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	MaxConcurrentBookings *int    `json:"max_concurrent_bookings" validate:"omitempty,min=1"`
	Timezone              string  `json:"timezone" validate:"omitempty,timezone"`
	IsRecurring           bool    `json:"is_recurring"`
	RecurringUntil        *string `json:"recurring_until" validate:"omitempty,datetime=2006-01-02"`
	IsAvailable           *bool   `json:"is_available"`
}

// SlotPatch edits an existing slot. Nil fields are left unchanged.
type SlotPatch struct {
	StartTime             *string `json:"start_time"`
	EndTime               *string `json:"end_time"`
	DurationMinutes       *int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	MaxConcurrentBookings *int    `json:"max_concurrent_bookings" validate:"omitempty,min=1"`
	Timezone              *string `json:"timezone" validate:"omitempty,timezone"`
	RecurringUntil        *string `json:"recurring_until" validate:"omitempty,datetime=2006-01-02"`
	IsAvailable           *bool   `json:"is_available"`
}

// SlotQuery filters ListAvailableSlots. The date bounds apply to one-off slots.
type SlotQuery struct {
	DayOfWeek *int   `form:"day_of_week" validate:"omitempty,min=0,max=6"`
	DateFrom  string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// AvailabilityRegistry owns consultants' bookable windows.
type AvailabilityRegistry struct {
	store store.Store
}

func NewAvailabilityRegistry(s store.Store) *AvailabilityRegistry {
	return &AvailabilityRegistry{store: s}
}

func (r *AvailabilityRegistry) CreateSlot(ctx context.Context, organizationID, consultantID string, in SlotInput) (*model.AvailabilitySlot, error) {
	if organizationID == "" || consultantID == "" {
		return nil, invalidInput(errors.New("organization and consultant are required"))
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	if in.DayOfWeek == nil && in.DateSpecific == nil {
		return nil, invalidInput(errors.New("one of day_of_week and date_specific is required"))
	}
	rng, err := parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	slot := &model.AvailabilitySlot{
		ID:                    uuid.NewString(),
		ConsultantID:          consultantID,
		OrganizationID:        organizationID,
		DayOfWeek:             in.DayOfWeek,
		DateSpecific:          in.DateSpecific,
		StartTime:             rng.Start.String(),
		EndTime:               rng.End.String(),
		DurationMinutes:       intOr(in.DurationMinutes, DefaultDurationMinutes),
		MaxConcurrentBookings: intOr(in.MaxConcurrentBookings, DefaultMaxConcurrentBookings),
		Timezone:              stringOr(in.Timezone, DefaultTimezone),
		IsRecurring:           in.IsRecurring,
		IsAvailable:           in.IsAvailable == nil || *in.IsAvailable,
	}
	if in.IsRecurring {
		slot.RecurringUntil = in.RecurringUntil
	}

	if err := r.store.CreateSlot(ctx, slot); err != nil {
		return nil, persistence(err)
	}
	return slot, nil
}

func (r *AvailabilityRegistry) GetSlot(ctx context.Context, slotID string) (*model.AvailabilitySlot, error) {
	slot, err := r.store.GetSlot(ctx, slotID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}
	if err != nil {
		return nil, persistence(err)
	}
	return slot, nil
}

// UpdateSlot applies patch to a slot owned by consultantID and re-checks the
// resulting time range.
func (r *AvailabilityRegistry) UpdateSlot(ctx context.Context, slotID, consultantID string, patch SlotPatch) (*model.AvailabilitySlot, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, invalidInput(err)
	}
	slot, err := r.ownedSlot(ctx, slotID, consultantID)
	if err != nil {
		return nil, err
	}

	start, end := slot.StartTime, slot.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	rng, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}
	slot.StartTime = rng.Start.String()
	slot.EndTime = rng.End.String()

	if patch.DurationMinutes != nil {
		slot.DurationMinutes = *patch.DurationMinutes
	}
	if patch.MaxConcurrentBookings != nil {
		slot.MaxConcurrentBookings = *patch.MaxConcurrentBookings
	}
	if patch.Timezone != nil {
		slot.Timezone = stringOr(*patch.Timezone, DefaultTimezone)
	}
	if patch.RecurringUntil != nil && slot.IsRecurring {
		slot.RecurringUntil = patch.RecurringUntil
	}
	if patch.IsAvailable != nil {
		slot.IsAvailable = *patch.IsAvailable
	}

	if err := r.store.UpdateSlot(ctx, slot); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
		}
		return nil, persistence(err)
	}
	return slot, nil
}

// DeleteSlot soft-deletes a slot owned by consultantID.
func (r *AvailabilityRegistry) DeleteSlot(ctx context.Context, slotID, consultantID string) error {
	if _, err := r.ownedSlot(ctx, slotID, consultantID); err != nil {
		return err
	}
	if err := r.store.DeleteSlot(ctx, slotID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
		}
		return persistence(err)
	}
	return nil
}

// ListAvailableSlots returns bookable windows ordered by date, weekday and start time.
func (r *AvailabilityRegistry) ListAvailableSlots(ctx context.Context, consultantID, organizationID string, q SlotQuery) ([]model.AvailabilitySlot, error) {
	if err := validate.Struct(q); err != nil {
		return nil, invalidInput(err)
	}
	slots, err := r.store.ListSlots(ctx, store.SlotFilter{
		ConsultantID:   consultantID,
		OrganizationID: organizationID,
		DayOfWeek:      q.DayOfWeek,
		DateFrom:       q.DateFrom,
		DateTo:         q.DateTo,
		OnlyAvailable:  true,
	})
	if err != nil {
		return nil, persistence(err)
	}
	return slots, nil
}

func (r *AvailabilityRegistry) ownedSlot(ctx context.Context, slotID, consultantID string) (*model.AvailabilitySlot, error) {
	slot, err := r.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ConsultantID != consultantID {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}
	return slot, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
