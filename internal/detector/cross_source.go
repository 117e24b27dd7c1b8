package detector

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// CrossSourceDetector flags two public-split sources that disagree sharply,
// which usually means one of them is seeing money the other is not
type CrossSourceDetector struct {
	cfg config.CrossSourceConfig
}

// NewCrossSourceDetector creates a new cross-source divergence detector
func NewCrossSourceDetector(cfg config.CrossSourceConfig) *CrossSourceDetector {
	return &CrossSourceDetector{cfg: cfg}
}

// Name returns the detector name
func (d *CrossSourceDetector) Name() string {
	return "cross_source_divergence"
}

// Detect emits a side-neutral spread confirmation
func (d *CrossSourceDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if s.PublicSpreadPct == nil || s.AltPublicSpreadPct == nil {
		return nil
	}

	gap := math.Abs(*s.PublicSpreadPct - *s.AltPublicSpreadPct)
	if gap < d.cfg.MinGap {
		return nil
	}

	desc := fmt.Sprintf("Split sources disagree on %s: %.0f%% vs %.0f%%",
		s.HomeTeam, *s.PublicSpreadPct, *s.AltPublicSpreadPct)

	return []models.Signal{
		newSignal(models.SignalCrossSourceDivergence, models.MarketSpread, models.SideNone, d.cfg.Confidence, round1(gap), desc),
	}
}
