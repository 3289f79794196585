package model

import (
	"time"

	"gorm.io/gorm"
)

// Engagement is the counseling case ("bilan") a booking belongs to. Its
// lifecycle is owned elsewhere; the scheduler only reads its phase.
type Engagement struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string          `gorm:"size:36;not null;index" json:"organization_id"`
	BeneficiaryID  string          `gorm:"size:36;not null;index" json:"beneficiary_id"`
	ConsultantID   string          `gorm:"size:36;index" json:"consultant_id"`
	Phase          EngagementPhase `gorm:"size:32;not null" json:"phase"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
