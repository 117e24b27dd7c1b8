package decay

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/confidence"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// Factor names, also used as tier change reasons
const (
	FactorTime   = "time_decay"
	FactorLine   = "line_movement"
	FactorInjury = "injury_news"
	FactorLeak   = "information_leak"
)

// dominance breaks ties between factors of equal magnitude
var dominance = map[string]int{
	FactorInjury: 0,
	FactorLeak:   1,
	FactorLine:   2,
	FactorTime:   3,
}

// Result describes one evaluation
type Result struct {
	PickID        string
	PreviousTier  models.Tier
	PreviousScore float64
	Confidence    float64
	Tier          models.Tier
	Factors       []models.Adjustment
	Change        *models.TierChange
	Promoted      bool
	Demoted       bool
}

// Changed reports whether the evaluation moved the pick's tier
func (r *Result) Changed() bool {
	return r.Change != nil
}

// Engine re-scores issued picks against later snapshots. Every evaluation
// starts from the pick's creation confidence, so repeated evaluations never
// compound the same penalty.
type Engine struct {
	cfg     config.DecayConfig
	tiers   config.TierThresholds
	ceiling float64
}

// NewEngine creates a new decay engine
func NewEngine(cfg config.EngineConfig) *Engine {
	return &Engine{
		cfg:     cfg.Decay,
		tiers:   cfg.Tiers,
		ceiling: cfg.Confidence.Ceiling,
	}
}

// state is what the factors read: the pick after this evaluation's sticky
// bookkeeping (injury flag, leak count) has been folded in
type state struct {
	pick    *models.Pick
	current float64 // side line now
	hasLine bool
	at      float64 // hours since creation
}

type factor func(e *Engine, st state) models.Adjustment

var factors = []factor{timeFactor, lineFactor, injuryFactor, leakFactor}

// Reevaluate applies decay to pick using snapshot. On error the pick is untouched.
func (e *Engine) Reevaluate(pick *models.Pick, snapshot models.MarketSnapshot) (*Result, error) {
	if err := e.check(pick, snapshot); err != nil {
		return nil, err
	}

	next := pick.Clone()
	result := e.evaluate(next, snapshot, factors)
	*pick = *next

	return result, nil
}

func (e *Engine) check(pick *models.Pick, snapshot models.MarketSnapshot) error {
	if pick == nil {
		return fmt.Errorf("%w: nil pick", models.ErrInvalidState)
	}
	if pick.Graded {
		return fmt.Errorf("%w: pick %s is graded", models.ErrInvalidState, pick.ID)
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	if pick.GameID != snapshot.GameID {
		return fmt.Errorf("%w: pick %s belongs to game %s, snapshot is for %s",
			models.ErrInvalidState, pick.ID, pick.GameID, snapshot.GameID)
	}
	if snapshot.Timestamp.Before(pick.LastEvaluatedAt) {
		return fmt.Errorf("%w: snapshot at %s is older than last evaluation at %s",
			models.ErrMalformedSnapshot, snapshot.Timestamp.Format("15:04:05"), pick.LastEvaluatedAt.Format("15:04:05"))
	}
	return nil
}

// evaluate mutates next in place. It must only be handed a private copy.
func (e *Engine) evaluate(next *models.Pick, snapshot models.MarketSnapshot, fs []factor) *Result {
	st := e.advance(next, snapshot)

	total := next.BaseConfidence
	applied := make([]models.Adjustment, 0, len(fs))
	for _, f := range fs {
		adj := f(e, st)
		if adj.Delta == 0 {
			continue
		}
		total += adj.Delta
		applied = append(applied, adj)
	}

	result := &Result{
		PickID:        next.ID,
		PreviousTier:  next.Tier,
		PreviousScore: next.Confidence,
		Confidence:    math.Max(0, math.Min(e.ceiling, total)),
		Factors:       applied,
	}
	result.Tier = confidence.ClassifyTier(result.Confidence, e.tiers)

	next.Confidence = result.Confidence
	next.Adjustments = applied
	next.LastEvaluatedAt = snapshot.Timestamp

	if result.Tier != result.PreviousTier {
		change := models.TierChange{
			At:         snapshot.Timestamp,
			FromTier:   result.PreviousTier,
			ToTier:     result.Tier,
			Confidence: result.Confidence,
			Reason:     dominantReason(applied),
		}
		next.Tier = result.Tier
		next.AppendTierChange(change)

		result.Change = &change
		result.Promoted = change.Promoted()
		result.Demoted = !change.Promoted()
	}

	return result
}

// advance records what this snapshot adds to the pick's sticky state and
// returns the inputs every factor shares
func (e *Engine) advance(next *models.Pick, snapshot models.MarketSnapshot) state {
	st := state{
		pick: next,
		at:   snapshot.Timestamp.Sub(next.CreatedAt).Hours(),
	}

	if snapshot.InjuryReported {
		next.InjuryApplied = true
	}

	if next.Market == models.MarketMoneyline {
		return st
	}
	raw, ok := snapshot.CurrentLine(next.Market)
	if !ok {
		return st
	}

	st.current = next.Market.SideLine(next.Side, raw)
	st.hasLine = true

	// a pick created without a quote takes the first one seen as its line
	if next.Line == nil {
		line := st.current
		next.Line = &line
	}

	// jumps are only measured between two re-evaluations, never from creation
	if next.LastLine != nil && math.Abs(st.current-*next.LastLine) >= e.cfg.LeakJump {
		next.LeakJumps++
	}
	last := st.current
	next.LastLine = &last

	return st
}

func timeFactor(e *Engine, st state) models.Adjustment {
	over := st.at - e.cfg.FreshHours
	if over <= 0 {
		return models.Adjustment{Name: FactorTime}
	}
	penalty := math.Min(e.cfg.MaxTimeDecay, e.cfg.RatePerHour*over)
	return models.Adjustment{
		Name:   FactorTime,
		Delta:  -penalty,
		Reason: fmt.Sprintf("%.1fh since pick", st.at),
	}
}

func lineFactor(e *Engine, st state) models.Adjustment {
	if !st.hasLine {
		return models.Adjustment{Name: FactorLine}
	}

	p := st.pick
	from := *p.Line
	moved := p.Market.Movement(p.Side, from, st.current)
	switch {
	case moved > 0:
		return models.Adjustment{
			Name:   FactorLine,
			Delta:  e.cfg.FavorablePerPoint * moved,
			Reason: fmt.Sprintf("line moved %.1f pts toward pick (%+.1f → %+.1f)", moved, from, st.current),
		}
	case -moved > e.cfg.AdverseDeadZone:
		return models.Adjustment{
			Name:   FactorLine,
			Delta:  -e.cfg.AdversePerPoint * (-moved - e.cfg.AdverseDeadZone),
			Reason: fmt.Sprintf("line moved %.1f pts against pick (%+.1f → %+.1f)", -moved, from, st.current),
		}
	}
	return models.Adjustment{Name: FactorLine}
}

func injuryFactor(e *Engine, st state) models.Adjustment {
	if !st.pick.InjuryApplied {
		return models.Adjustment{Name: FactorInjury}
	}
	return models.Adjustment{
		Name:   FactorInjury,
		Delta:  -e.cfg.InjuryPenalty,
		Reason: "injury or news reported after pick",
	}
}

func leakFactor(e *Engine, st state) models.Adjustment {
	n := st.pick.LeakJumps
	if n == 0 {
		return models.Adjustment{Name: FactorLeak}
	}
	return models.Adjustment{
		Name:   FactorLeak,
		Delta:  -e.cfg.LeakPenalty * float64(n),
		Reason: fmt.Sprintf("%d sudden line jump(s) between evaluations", n),
	}
}

// dominantReason names the factor with the largest absolute delta
func dominantReason(applied []models.Adjustment) string {
	if len(applied) == 0 {
		return "reclassified"
	}

	best := applied[0]
	for _, adj := range applied[1:] {
		a, b := math.Abs(adj.Delta), math.Abs(best.Delta)
		if a > b || (a == b && dominance[adj.Name] < dominance[best.Name]) {
			best = adj
		}
	}
	return best.Name
}
