package detector

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// RestAdvantageDetector backs a rested team against one on a back-to-back
type RestAdvantageDetector struct {
	cfg config.RestConfig
}

// NewRestAdvantageDetector creates a new rest advantage detector
func NewRestAdvantageDetector(cfg config.RestConfig) *RestAdvantageDetector {
	return &RestAdvantageDetector{cfg: cfg}
}

// Name returns the detector name
func (d *RestAdvantageDetector) Name() string {
	return "rest_advantage"
}

// Detect emits a spread confirmation for the rested side
func (d *RestAdvantageDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if s.HomeRestDays == nil || s.AwayRestDays == nil {
		return nil
	}

	home, away := *s.HomeRestDays, *s.AwayRestDays

	var rested, tired models.Side
	switch {
	case home == 0 && away >= d.cfg.MinRestGap:
		rested, tired = models.SideAway, models.SideHome
	case away == 0 && home >= d.cfg.MinRestGap:
		rested, tired = models.SideHome, models.SideAway
	default:
		return nil
	}

	gap := home - away
	if gap < 0 {
		gap = -gap
	}

	desc := fmt.Sprintf("Rest edge: %s on a back-to-back, %s with %d days rest",
		s.Team(tired), s.Team(rested), gap)

	return []models.Signal{
		newSignal(models.SignalRestAdvantage, models.MarketSpread, rested, d.cfg.Confidence, float64(gap), desc),
	}
}
