package scheduling

import (
	"go.uber.org/zap"

	"session-scheduling-backend/internal/store"
)

// Engine bundles the scheduling components over one store.
type Engine struct {
	Slots     *AvailabilityRegistry
	Conflicts *ConflictDetector
	Gate      *EngagementGate
	Reminders *ReminderScheduler
	Analytics *AnalyticsAggregator
	Bookings  *BookingService
}

// NewEngine wires the components. engagements is usually the store itself.
func NewEngine(s store.Store, engagements EngagementLookup, log *zap.Logger) *Engine {
	gate := NewEngagementGate(engagements)
	reminders := NewReminderScheduler(s)
	analytics := NewAnalyticsAggregator(s)
	return &Engine{
		Slots:     NewAvailabilityRegistry(s),
		Conflicts: NewConflictDetector(s),
		Gate:      gate,
		Reminders: reminders,
		Analytics: analytics,
		Bookings:  NewBookingService(s, gate, reminders, analytics, log.Named("bookings")),
	}
}
