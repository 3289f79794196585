package model

import "time"

// SessionReminder is a notification due at ScheduledTime for one booking.
// Only the delivery side updates SentAt, Failed, ErrorMessage and RetryCount.
type SessionReminder struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	BookingID     string       `gorm:"size:36;not null;index" json:"booking_id"`
	RecipientID   string       `gorm:"size:36;not null;index" json:"recipient_id"`
	ReminderType  ReminderType `gorm:"size:32;not null" json:"reminder_type"`
	ScheduledTime time.Time    `gorm:"not null;index" json:"scheduled_time"`
	SentAt        *time.Time   `json:"sent_at,omitempty"`
	Failed        bool         `gorm:"not null" json:"failed"`
	ErrorMessage  *string      `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount    int          `gorm:"not null" json:"retry_count"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`

	// Associations
	Booking SessionBooking `gorm:"foreignKey:BookingID" json:"-"`
}
