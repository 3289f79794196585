package model

import (
	"time"

	"gorm.io/gorm"
)

// AvailabilitySlot is a consultant's declared bookable window, either weekly
// (DayOfWeek) or one-off (DateSpecific).
type AvailabilitySlot struct {
	ID                    string         `gorm:"primaryKey;size:36" json:"id"`
	ConsultantID          string         `gorm:"size:36;not null;index:idx_slot_owner,priority:1" json:"consultant_id"`
	OrganizationID        string         `gorm:"size:36;not null;index:idx_slot_owner,priority:2" json:"organization_id"`
	DayOfWeek             *int           `json:"day_of_week,omitempty"`
	DateSpecific          *string        `gorm:"size:10;index" json:"date_specific,omitempty"`
	StartTime             string         `gorm:"size:5;not null" json:"start_time"`
	EndTime               string         `gorm:"size:5;not null" json:"end_time"`
	DurationMinutes       int            `gorm:"not null" json:"duration_minutes"`
	MaxConcurrentBookings int            `gorm:"not null" json:"max_concurrent_bookings"`
	Timezone              string         `gorm:"size:64;not null" json:"timezone"`
	IsRecurring           bool           `gorm:"not null" json:"is_recurring"`
	RecurringUntil        *string        `gorm:"size:10" json:"recurring_until,omitempty"`
	IsAvailable           bool           `gorm:"not null" json:"is_available"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}
