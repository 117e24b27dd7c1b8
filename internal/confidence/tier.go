package confidence

import (
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// ClassifyTier maps a confidence to its tier. Thresholds are inclusive lower bounds.
func ClassifyTier(confidence float64, t config.TierThresholds) models.Tier {
	switch {
	case confidence >= t.Tier1:
		return models.TierOne
	case confidence >= t.Tier2:
		return models.TierTwo
	case confidence >= t.Lean:
		return models.TierLean
	default:
		return models.TierPass
	}
}
