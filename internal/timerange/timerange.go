package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date form.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var (
	ErrMalformed = errors.New("malformed time of day")
	ErrEmpty     = errors.New("start must be before end")
	ErrOverflow  = errors.New("time of day leaves the calendar day")
)

// Clock is a wall-clock time expressed as minutes since midnight.
type Clock int

// ParseClock accepts "H:MM", "HH:MM" and "HH:MM:SS" with zero seconds.
func ParseClock(raw string) (Clock, error) {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: %q has seconds", ErrMalformed, raw)
	}
	if len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 || !digits(parts[0]) || !digits(parts[1]) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return Clock(h*60 + m), nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustClock is ParseClock for literals known to be valid.
func MustClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the zero-padded "HH:MM" form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add shifts the clock by the given minutes. The result must still be a
// valid "HH:MM", so 24:00 and later are rejected.
func (c Clock) Add(minutes int) (Clock, error) {
	n := int(c) + minutes
	if n < 0 || n >= minutesPerDay {
		return 0, fmt.Errorf("%w: %s%+d minutes", ErrOverflow, c, minutes)
	}
	return Clock(n), nil
}

// Range is a half-open interval [Start, End) within one day.
type Range struct {
	Start Clock
	End   Clock
}

// New builds a range, rejecting empty and inverted ones.
func New(start, end Clock) (Range, error) {
	if start >= end {
		return Range{}, fmt.Errorf("%w: %s-%s", ErrEmpty, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// Parse builds a range from two "HH:MM" strings.
func Parse(start, end string) (Range, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

// Overlaps reports whether the ranges share any minute. Touching ranges
// (one ends where the other starts) do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && r.End > o.Start
}

// Minutes is the length of the range.
func (r Range) Minutes() int {
	return int(r.End - r.Start)
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ParseDate validates a "YYYY-MM-DD" date and returns it at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// Instant combines a date and a clock in the given location.
func Instant(date string, c Clock, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// LoadLocation resolves an IANA zone name; empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
