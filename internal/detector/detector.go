package detector

import (
	"fmt"
	"math"
	"strings"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/signals"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// NewSet builds the full detector set in evaluation order
func NewSet(cfg config.EngineConfig) []contracts.SignalDetector {
	return []contracts.SignalDetector{
		NewSpreadRLMDetector(cfg.SpreadRLM),
		NewTotalRLMDetector(cfg.TotalRLM),
		NewDivergenceDetector(cfg.Divergence),
		NewLineFreezeDetector(cfg.LineFreeze),
		NewATSTrendDetector(cfg.ATS),
		NewBookDisagreementDetector(cfg.BookDisagreement),
		NewRestAdvantageDetector(cfg.Rest),
		NewCrossSourceDetector(cfg.CrossSource),
	}
}

// Select keeps the detectors named, in set order. An unknown name is an error.
func Select(set []contracts.SignalDetector, names []string) ([]contracts.SignalDetector, error) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[strings.TrimSpace(name)] = true
	}

	var out []contracts.SignalDetector
	for _, d := range set {
		if want[d.Name()] {
			out = append(out, d)
			delete(want, d.Name())
		}
	}
	for name := range want {
		return nil, fmt.Errorf("unknown detector %q", name)
	}
	return out, nil
}

// Run executes every detector against the snapshot and joins their output.
// Output order follows detector order, so identical inputs give identical results.
func Run(detectors []contracts.SignalDetector, snapshot models.MarketSnapshot) []models.Signal {
	all := make([]models.Signal, 0, len(detectors))
	for _, d := range detectors {
		all = append(all, d.Detect(snapshot)...)
	}
	return all
}

func newSignal(t models.SignalType, market models.Market, side models.Side, confidence, magnitude float64, description string) models.Signal {
	return models.Signal{
		Type:        t,
		Category:    signals.CategoryOf(t),
		Market:      market,
		Side:        side,
		Confidence:  confidence,
		Magnitude:   magnitude,
		Description: description,
	}
}

// publicSide returns the side holding at least minPct of a two-way split and
// that side's share. pct is the share on `first`.
func publicSide(pct, minPct float64, first models.Side) (models.Side, float64, bool) {
	switch {
	case pct >= minPct:
		return first, pct, true
	case 100-pct >= minPct:
		return first.Opposite(), 100 - pct, true
	}
	return models.SideNone, 0, false
}

// scale maps value linearly from [lo, hi] onto [minOut, maxOut], clipped
func scale(value, lo, hi, minOut, maxOut float64) float64 {
	if hi <= lo {
		return minOut
	}
	frac := (value - lo) / (hi - lo)
	return clip(minOut+frac*(maxOut-minOut), minOut, maxOut)
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round1 trims float noise from magnitudes that end up in descriptions and storage
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func totalLabel(side models.Side) string {
	if side == models.SideUnder {
		return "Under"
	}
	return "Over"
}
