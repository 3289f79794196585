package model

// SessionAnalytics is the daily rollup for one consultant within one organization.
// The row is always rewritten whole from the current booking set.
type SessionAnalytics struct {
	ID                     string   `gorm:"primaryKey;size:36" json:"id"`
	ConsultantID           string   `gorm:"size:36;not null;uniqueIndex:idx_analytics_key,priority:1" json:"consultant_id"`
	OrganizationID         string   `gorm:"size:36;not null;uniqueIndex:idx_analytics_key,priority:2" json:"organization_id"`
	Date                   string   `gorm:"size:10;not null;uniqueIndex:idx_analytics_key,priority:3" json:"date"`
	TotalSessionsScheduled int      `gorm:"not null" json:"total_sessions_scheduled"`
	TotalSessionsCompleted int      `gorm:"not null" json:"total_sessions_completed"`
	TotalSessionsNoShow    int      `gorm:"not null" json:"total_sessions_no_show"`
	TotalSessionsCancelled int      `gorm:"not null" json:"total_sessions_cancelled"`
	AverageRating          *float64 `json:"average_rating"`
	TotalHoursCompleted    float64  `gorm:"not null" json:"total_hours_completed"`
}

func (SessionAnalytics) TableName() string {
	return "session_analytics"
}
