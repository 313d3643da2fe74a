package services

import (
	"github.com/qolzam/imagehost/internal/pkg/log"
	"github.com/qolzam/imagehost/tiers/models"
)

// EffectiveTier returns the tier that governs user. An unassigned user, or one
// whose tier no longer exists, gets the snapshot's default tier. user is not modified.
func EffectiveTier(snap *Snapshot, user models.User) models.Tier {
	if user.TierID == nil {
		return snap.Default()
	}
	tier, err := snap.Resolve(*user.TierID)
	if err != nil {
		log.Warn("[tiers] user %s has unknown tier %s, falling back to %s", user.ID, *user.TierID, snap.Default().Name)
		return snap.Default()
	}
	return tier
}

// ComputeView decides which representations user may see. The decision
// depends only on the user's effective tier, never on the image itself.
func ComputeView(snap *Snapshot, user models.User) models.RenderDecision {
	return DecisionFor(EffectiveTier(snap, user))
}

// DecisionFor maps a tier onto its RenderDecision
func DecisionFor(tier models.Tier) models.RenderDecision {
	return models.RenderDecision{
		ThumbnailSizes:    tier.Sizes(),
		IncludeOriginal:   tier.ExposeOriginal,
		CanIssueTempLinks: tier.CanIssueTempLinks,
	}
}
