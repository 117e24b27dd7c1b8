package detector

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// DivergenceDetector flags a public that backs a team to win outright far more
// than it backs the same team to cover
type DivergenceDetector struct {
	cfg config.DivergenceConfig
}

// NewDivergenceDetector creates a new moneyline/spread divergence detector
func NewDivergenceDetector(cfg config.DivergenceConfig) *DivergenceDetector {
	return &DivergenceDetector{cfg: cfg}
}

// Name returns the detector name
func (d *DivergenceDetector) Name() string {
	return "ml_spread_divergence"
}

// Detect emits one PRIMARY spread signal for the team the moneyline public is
// against, when that public's moneyline share exceeds its spread share by MinGap
func (d *DivergenceDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if s.PublicMoneylinePct == nil || s.PublicSpreadPct == nil {
		return nil
	}

	mlHome, spreadHome := *s.PublicMoneylinePct, *s.PublicSpreadPct

	favorite := models.SideHome
	mlShare, spreadShare := mlHome, spreadHome
	if mlHome < 50 {
		favorite = models.SideAway
		mlShare, spreadShare = 100-mlHome, 100-spreadHome
	}

	gap := mlShare - spreadShare
	if gap < d.cfg.MinGap {
		return nil
	}

	confidence := scale(gap, d.cfg.MinGap, d.cfg.StrongGap, d.cfg.MinConfidence, d.cfg.MaxConfidence)

	desc := fmt.Sprintf("Divergence: %.0f%% of moneyline bets on %s but only %.0f%% on their spread (%.0f pt gap)",
		mlShare, s.Team(favorite), spreadShare, gap)

	return []models.Signal{
		newSignal(models.SignalMLSpreadDivergence, models.MarketSpread, favorite.Opposite(), confidence, round1(gap), desc),
	}
}
