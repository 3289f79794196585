package model

// BookingStatus is the lifecycle state of a session booking.
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "SCHEDULED"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
	StatusNoShow     BookingStatus = "NO_SHOW"
)

// ActiveStatuses are the statuses that occupy a consultant's time.
var ActiveStatuses = []BookingStatus{StatusScheduled, StatusConfirmed, StatusInProgress}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether s counts toward conflict detection.
func (s BookingStatus) Active() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// SessionType classifies a booking within an engagement.
type SessionType string

const (
	SessionInitialMeeting SessionType = "INITIAL_MEETING"
	SessionFollowUp       SessionType = "FOLLOW_UP"
	SessionReview         SessionType = "REVIEW"
	SessionFinal          SessionType = "FINAL"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionInitialMeeting, SessionFollowUp, SessionReview, SessionFinal:
		return true
	}
	return false
}

// MeetingFormat is how the consultant and beneficiary meet.
type MeetingFormat string

const (
	FormatInPerson MeetingFormat = "IN_PERSON"
	FormatVideo    MeetingFormat = "VIDEO"
	FormatPhone    MeetingFormat = "PHONE"
)

func (f MeetingFormat) Valid() bool {
	switch f {
	case FormatInPerson, FormatVideo, FormatPhone:
		return true
	}
	return false
}

// ReminderType identifies who is reminded and when.
type ReminderType string

const (
	ReminderBeneficiary24h         ReminderType = "BENEFICIARY_24H"
	ReminderBeneficiary1h          ReminderType = "BENEFICIARY_1H"
	ReminderConsultant24h          ReminderType = "CONSULTANT_24H"
	ReminderConsultant1h           ReminderType = "CONSULTANT_1H"
	ReminderBeneficiaryPostSession ReminderType = "BENEFICIARY_POST_SESSION"
)

// ForConsultant reports whether the reminder targets the consultant.
func (t ReminderType) ForConsultant() bool {
	return t == ReminderConsultant24h || t == ReminderConsultant1h
}

// EngagementPhase is the phase of the engagement ("bilan") a booking belongs to.
type EngagementPhase string

const (
	PhasePreliminary   EngagementPhase = "PRELIMINARY"
	PhaseInvestigation EngagementPhase = "INVESTIGATION"
	PhaseConclusion    EngagementPhase = "CONCLUSION"
	PhaseCompleted     EngagementPhase = "COMPLETED"
	PhaseArchived      EngagementPhase = "ARCHIVED"
)

// Bookable reports whether an engagement in this phase may receive sessions.
func (p EngagementPhase) Bookable() bool {
	return p != PhaseArchived && p != PhaseCompleted
}
