package store

import "session-scheduling-backend/internal/model"

// SlotFilter narrows ListSlots. Zero values are ignored.
//
// DateFrom and DateTo bound date_specific, so weekly slots drop out as soon
// as either is set.
type SlotFilter struct {
	ConsultantID   string
	OrganizationID string
	DayOfWeek      *int
	DateFrom       string
	DateTo         string
	OnlyAvailable  bool
}

// BookingFilter narrows ListBookings. Zero values are ignored.
type BookingFilter struct {
	ConsultantID   string
	BeneficiaryID  string
	OrganizationID string
	Statuses       []model.BookingStatus
	DateFrom       string
	DateTo         string
}

// AnalyticsFilter narrows ListAnalytics. Zero values are ignored.
type AnalyticsFilter struct {
	ConsultantID   string
	OrganizationID string
	DateFrom       string
	DateTo         string
}
