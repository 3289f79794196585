package scheduling

import (
	"context"
	"errors"
	"fmt"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

// EngagementLookup is the engagement collaborator. store.Store satisfies it.
type EngagementLookup interface {
	GetEngagement(ctx context.Context, id string) (*model.Engagement, error)
}

// GateResult is the outcome of a successful gate check.
type GateResult struct {
	Valid bool                  `json:"valid"`
	Phase model.EngagementPhase `json:"phase"`
}

// EngagementGate decides whether an engagement may receive new sessions.
type EngagementGate struct {
	engagements EngagementLookup
}

func NewEngagementGate(engagements EngagementLookup) *EngagementGate {
	return &EngagementGate{engagements: engagements}
}

func (g *EngagementGate) ValidateForBooking(ctx context.Context, engagementID string) (GateResult, error) {
	engagement, err := g.engagements.GetEngagement(ctx, engagementID)
	if errors.Is(err, store.ErrNotFound) {
		return GateResult{}, fmt.Errorf("%w: %s", ErrEngagementNotFound, engagementID)
	}
	if err != nil {
		return GateResult{}, persistence(err)
	}

	if !engagement.Phase.Bookable() {
		return GateResult{}, fmt.Errorf("%w: engagement %s is %s", ErrEngagementNotBookable, engagementID, engagement.Phase)
	}
	return GateResult{Valid: true, Phase: engagement.Phase}, nil
}
