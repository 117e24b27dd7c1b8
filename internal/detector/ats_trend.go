package detector

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// ATSTrendDetector flags teams on extreme against-the-spread runs. It only
// ever confirms: a streak says nothing about why the current line moved.
type ATSTrendDetector struct {
	cfg config.ATSConfig
}

// NewATSTrendDetector creates a new ATS trend extreme detector
func NewATSTrendDetector(cfg config.ATSConfig) *ATSTrendDetector {
	return &ATSTrendDetector{cfg: cfg}
}

// Name returns the detector name
func (d *ATSTrendDetector) Name() string {
	return "ats_trend"
}

// Detect fades hot teams and backs cold ones, once per team with a qualifying record
func (d *ATSTrendDetector) Detect(s models.MarketSnapshot) []models.Signal {
	var out []models.Signal

	for _, team := range []struct {
		side   models.Side
		record *models.ATSRecord
	}{
		{models.SideHome, s.HomeATSLast10},
		{models.SideAway, s.AwayATSLast10},
	} {
		if team.record == nil || team.record.Games() < d.cfg.MinGames {
			continue
		}
		rate, ok := team.record.WinRate()
		if !ok {
			continue
		}

		var (
			favored models.Side
			excess  float64
			verdict string
		)
		switch {
		case rate >= d.cfg.HotRate:
			favored, excess, verdict = team.side.Opposite(), rate-d.cfg.HotRate, "fade"
		case rate <= d.cfg.ColdRate:
			favored, excess, verdict = team.side, d.cfg.ColdRate-rate, "back"
		default:
			continue
		}

		// the furthest a rate can sit past either boundary
		span := 1 - d.cfg.HotRate
		if d.cfg.ColdRate > span {
			span = d.cfg.ColdRate
		}
		confidence := scale(excess, 0, span, d.cfg.MinConfidence, d.cfg.MaxConfidence)

		desc := fmt.Sprintf("ATS extreme: %s %s L%d ATS, %s regression",
			s.Team(team.side), team.record, team.record.Games(), verdict)

		out = append(out, newSignal(models.SignalATSExtreme, models.MarketSpread, favored, confidence, rate, desc))
	}

	return out
}
