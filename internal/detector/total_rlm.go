package detector

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// TotalRLMDetector flags totals moving against the public's Over/Under lean
type TotalRLMDetector struct {
	cfg config.TotalRLMConfig
}

// NewTotalRLMDetector creates a new total reverse-line-movement detector
func NewTotalRLMDetector(cfg config.TotalRLMConfig) *TotalRLMDetector {
	return &TotalRLMDetector{cfg: cfg}
}

// Name returns the detector name
func (d *TotalRLMDetector) Name() string {
	return "total_rlm"
}

// Detect emits Under when the public is on the Over and the total dropped,
// and Over when the public is on the Under and the total rose
func (d *TotalRLMDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if s.OpeningTotal == nil || s.CurrentTotal == nil || s.PublicTotalPct == nil {
		return nil
	}

	public, share, ok := publicSide(*s.PublicTotalPct, d.cfg.MinPublicPct, models.SideOver)
	if !ok {
		return nil
	}

	m := models.MarketTotal
	movement := m.Movement(public, *s.OpeningTotal, *s.CurrentTotal)
	if movement > -d.cfg.MinMove {
		return nil
	}

	moved := math.Abs(movement)
	favored := public.Opposite()
	confidence := scale(moved, d.cfg.MinMove, d.cfg.StrongMove, d.cfg.MinConfidence, d.cfg.MaxConfidence)

	desc := fmt.Sprintf("RLM: %.0f%% of total bets on the %s but total moved %.1f pts the other way (%.1f → %.1f)",
		share, totalLabel(public), moved, *s.OpeningTotal, *s.CurrentTotal)

	return []models.Signal{
		newSignal(models.SignalRLMTotal, m, favored, confidence, round1(moved), desc),
	}
}
