package model

import (
	"time"

	"gorm.io/gorm"
)

// SessionBooking is one scheduled meeting between a consultant and a beneficiary.
//
// StartMinute and EndMinute mirror the scheduled times as minutes since
// midnight so overlap can be evaluated numerically by the database.
type SessionBooking struct {
	ID                 string  `gorm:"primaryKey;size:36" json:"id"`
	EngagementID       string  `gorm:"size:36;not null;index" json:"engagement_id"`
	ConsultantID       string  `gorm:"size:36;not null;index:idx_booking_schedule,priority:1" json:"consultant_id"`
	BeneficiaryID      string  `gorm:"size:36;not null;index" json:"beneficiary_id"`
	OrganizationID     string  `gorm:"size:36;not null;index" json:"organization_id"`
	SlotID             *string `gorm:"size:36" json:"slot_id,omitempty"`
	ScheduledDate      string  `gorm:"size:10;not null;index:idx_booking_schedule,priority:2" json:"scheduled_date"`
	ScheduledStartTime string  `gorm:"size:5;not null" json:"scheduled_start_time"`
	ScheduledEndTime   string  `gorm:"size:5;not null" json:"scheduled_end_time"`
	StartMinute        int     `gorm:"not null" json:"-"`
	EndMinute          int     `gorm:"not null" json:"-"`
	DurationMinutes    int     `gorm:"not null" json:"duration_minutes"`
	Timezone           string  `gorm:"size:64;not null" json:"timezone"`

	SessionType     SessionType   `gorm:"size:32;not null" json:"session_type"`
	MeetingFormat   MeetingFormat `gorm:"size:16;not null" json:"meeting_format"`
	MeetingLocation *string       `gorm:"size:512" json:"meeting_location,omitempty"`
	MeetingLink     *string       `gorm:"size:512" json:"meeting_link,omitempty"`

	Status              BookingStatus   `gorm:"size:16;not null;index:idx_booking_schedule,priority:3" json:"status"`
	Attended            *bool           `json:"attended,omitempty"`
	CancellationReason  *string         `gorm:"type:text" json:"cancellation_reason,omitempty"`
	BeneficiaryRating   *int            `json:"beneficiary_rating,omitempty"`
	BeneficiaryFeedback *string         `gorm:"type:text" json:"beneficiary_feedback,omitempty"`
	PhaseAtBooking      EngagementPhase `gorm:"column:bilan_phase_at_booking;size:32" json:"bilan_phase_at_booking"`

	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
