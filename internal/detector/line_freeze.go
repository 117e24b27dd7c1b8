package detector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// LineFreezeDetector flags lines the book refuses to move despite one-sided
// public action. A heavy public with a frozen line suggests the book is happy
// to hold that liability.
type LineFreezeDetector struct {
	cfg config.LineFreezeConfig
}

// NewLineFreezeDetector creates a new line freeze detector
func NewLineFreezeDetector(cfg config.LineFreezeConfig) *LineFreezeDetector {
	return &LineFreezeDetector{cfg: cfg}
}

// Name returns the detector name
func (d *LineFreezeDetector) Name() string {
	return "line_freeze"
}

// Detect checks the spread and total trails independently
func (d *LineFreezeDetector) Detect(s models.MarketSnapshot) []models.Signal {
	if len(s.LineHistory) < 2 {
		return nil
	}

	history := make([]models.LineObservation, len(s.LineHistory))
	copy(history, s.LineHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ObservedAt.Before(history[j].ObservedAt)
	})

	var out []models.Signal
	if sig, ok := d.detectMarket(s, history, models.MarketSpread, s.PublicSpreadPct, models.SideHome, func(o models.LineObservation) *float64 { return o.Spread }); ok {
		out = append(out, sig)
	}
	if sig, ok := d.detectMarket(s, history, models.MarketTotal, s.PublicTotalPct, models.SideOver, func(o models.LineObservation) *float64 { return o.Total }); ok {
		out = append(out, sig)
	}
	return out
}

func (d *LineFreezeDetector) detectMarket(
	s models.MarketSnapshot,
	history []models.LineObservation,
	market models.Market,
	pct *float64,
	first models.Side,
	value func(models.LineObservation) *float64,
) (models.Signal, bool) {
	if pct == nil {
		return models.Signal{}, false
	}

	public, share, ok := publicSide(*pct, d.cfg.HoldPublicPct, first)
	if !ok {
		return models.Signal{}, false
	}

	points := make([]models.LineObservation, 0, len(history))
	for _, o := range history {
		if value(o) != nil {
			points = append(points, o)
		}
	}
	if len(points) < 2 {
		return models.Signal{}, false
	}

	drift := math.Abs(*value(points[len(points)-1]) - *value(points[0]))
	if drift > d.cfg.MaxMovement {
		return models.Signal{}, false
	}

	hours := longestFrozen(points, value).Hours()
	if hours < d.cfg.MinHours {
		return models.Signal{}, false
	}

	var (
		confidence float64
		label      string
	)
	switch {
	case share >= d.cfg.TrapPublicPct && hours >= d.cfg.StrongHours:
		confidence = freezeScore(d.cfg.StrongTrap, share-d.cfg.TrapPublicPct, hours)
		label = "book trap"
	case share >= d.cfg.TrapPublicPct:
		confidence = freezeScore(d.cfg.Trap, share-d.cfg.TrapPublicPct, hours)
		label = "book trap"
	default:
		confidence = freezeScore(d.cfg.Hold, share-d.cfg.HoldPublicPct, hours)
		label = "sharp hold"
	}

	desc := fmt.Sprintf("Line freeze (%s): %.0f%% on %s, %s line held %.1fh",
		label, share, sideName(s, public), market, hours)

	return newSignal(models.SignalLineFreeze, market, public.Opposite(), confidence, round1(hours), desc), true
}

func freezeScore(f config.FreezeScore, pastThreshold, hours float64) float64 {
	return math.Min(f.Cap, f.Base+f.PctSlope*pastThreshold+f.HourRate*hours)
}

// longestFrozen returns the longest stretch over which the value did not change
func longestFrozen(points []models.LineObservation, value func(models.LineObservation) *float64) time.Duration {
	var longest time.Duration

	runStart := points[0].ObservedAt
	runValue := *value(points[0])
	for _, o := range points[1:] {
		v := *value(o)
		if v != runValue {
			runStart, runValue = o.ObservedAt, v
			continue
		}
		if held := o.ObservedAt.Sub(runStart); held > longest {
			longest = held
		}
	}
	return longest
}

func sideName(s models.MarketSnapshot, side models.Side) string {
	if team := s.Team(side); team != "" {
		return team
	}
	return totalLabel(side)
}
