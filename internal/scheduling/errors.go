package scheduling

import (
	"errors"
	"fmt"

	"session-scheduling-backend/internal/timerange"
)

var (
	ErrInvalidTimeRange      = errors.New("invalid time range")
	ErrInvalidInput          = errors.New("invalid input")
	ErrEngagementNotFound    = errors.New("engagement not found")
	ErrEngagementNotBookable = errors.New("engagement is not bookable")
	ErrBookingConflict       = errors.New("booking conflicts with an existing session")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPersistence           = errors.New("persistence failure")
)

func persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// parseRange maps time parsing failures onto the engine's taxonomy: an empty
// or inverted range is ErrInvalidTimeRange, anything unparsable is ErrInvalidInput.
func parseRange(start, end string) (timerange.Range, error) {
	r, err := timerange.Parse(start, end)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, timerange.ErrEmpty) {
		return r, fmt.Errorf("%w: %w", ErrInvalidTimeRange, err)
	}
	return r, invalidInput(err)
}

func parseDate(date string) error {
	if _, err := timerange.ParseDate(date); err != nil {
		return invalidInput(err)
	}
	return nil
}
