package detector

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// SpreadRLMDetector flags spreads moving against the side the public is on
type SpreadRLMDetector struct {
	cfg config.SpreadRLMConfig
}

// NewSpreadRLMDetector creates a new spread reverse-line-movement detector
func NewSpreadRLMDetector(cfg config.SpreadRLMConfig) *SpreadRLMDetector {
	return &SpreadRLMDetector{cfg: cfg}
}

// Name returns the detector name
func (d *SpreadRLMDetector) Name() string {
	return "spread_rlm"
}

// Detect emits one PRIMARY signal for the side opposite the public when the
// public side's number moved against it by at least MinMove points
func (d *SpreadRLMDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if s.OpeningSpread == nil || s.CurrentSpread == nil || s.PublicSpreadPct == nil {
		return nil
	}

	public, share, ok := publicSide(*s.PublicSpreadPct, d.cfg.MinPublicPct, models.SideHome)
	if !ok {
		return nil
	}

	m := models.MarketSpread
	from := m.SideLine(public, *s.OpeningSpread)
	to := m.SideLine(public, *s.CurrentSpread)
	movement := m.Movement(public, from, to)
	if movement > -d.cfg.MinMove {
		return nil
	}

	moved := math.Abs(movement)
	favored := public.Opposite()
	confidence := scale(moved, d.cfg.MinMove, d.cfg.FullMove, d.cfg.MinConfidence, d.cfg.MaxConfidence)

	desc := fmt.Sprintf("RLM: %.0f%% of spread bets on %s but line moved %.1f pts against them (%+.1f → %+.1f)",
		share, s.Team(public), moved, *s.OpeningSpread, *s.CurrentSpread)

	return []models.Signal{
		newSignal(models.SignalRLMSpread, m, favored, confidence, round1(moved), desc),
	}
}
