package confidence

import (
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/signals"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// Aggregator combines one market's signals into a single bounded score
type Aggregator struct {
	cfg        config.ConfidenceConfig
	classifier *signals.Classifier
}

// NewAggregator creates a new confidence aggregator
func NewAggregator(cfg config.ConfidenceConfig, classifier *signals.Classifier) *Aggregator {
	return &Aggregator{cfg: cfg, classifier: classifier}
}

// Score is the breakdown behind an aggregate confidence
type Score struct {
	Confidence float64
	Base       float64        // strongest primary
	Boosts     []Contribution // in application order
	Primary    *models.Signal
}

// Contribution is one confirmation's share of the score
type Contribution struct {
	Type  models.SignalType
	Boost float64
}

// Decision is the winning side of one market
type Decision struct {
	Market  models.Market
	Side    models.Side
	Score   Score
	Signals []models.Signal // every signal supporting the side, detection order
}

// Boost returns the k-th (1-based) confirmation's contribution at the given weight
func (a *Aggregator) Boost(k int, weight float64) float64 {
	if k < 1 {
		return 0
	}
	return a.cfg.NominalBoost * weight / float64(k)
}

// Aggregate scores a signal set for one pick. Without a primary the score is 0.
func (a *Aggregator) Aggregate(set []models.Signal) Score {
	var (
		primary       *models.Signal
		confirmations []models.Signal
	)

	for i := range set {
		sig := set[i]
		if sig.IsPrimary() {
			if primary == nil || sig.Confidence > primary.Confidence {
				primary = &set[i]
			}
			continue
		}
		confirmations = append(confirmations, sig)
	}

	if primary == nil {
		return Score{}
	}

	if a.cfg.OrderByConfidence {
		sort.SliceStable(confirmations, func(i, j int) bool {
			if confirmations[i].Confidence != confirmations[j].Confidence {
				return confirmations[i].Confidence > confirmations[j].Confidence
			}
			return confirmations[i].Type < confirmations[j].Type
		})
	}

	total := primary.Confidence
	boosts := make([]Contribution, 0, len(confirmations))
	for k, sig := range confirmations {
		b := a.Boost(k+1, a.classifier.Weight(sig.Type))
		boosts = append(boosts, Contribution{Type: sig.Type, Boost: b})
		total += b
	}

	p := *primary
	return Score{
		Confidence: clamp(total, a.cfg.Ceiling),
		Base:       primary.Confidence,
		Boosts:     boosts,
		Primary:    &p,
	}
}

// Decide picks the best-supported side of a market. Each side with a primary
// is scored against the signals supporting it; side-neutral confirmations
// count for either side. Ties go to the side whose primary was detected first.
func (a *Aggregator) Decide(market models.Market, set []models.Signal) (Decision, bool) {
	var sides []models.Side
	seen := make(map[models.Side]bool)
	for _, sig := range set {
		if sig.Market == market && sig.IsPrimary() && sig.Side != models.SideNone && !seen[sig.Side] {
			seen[sig.Side] = true
			sides = append(sides, sig.Side)
		}
	}

	var (
		best  Decision
		found bool
	)
	for _, side := range sides {
		supporting := make([]models.Signal, 0, len(set))
		for _, sig := range set {
			if sig.Supports(market, side) {
				supporting = append(supporting, sig)
			}
		}

		score := a.Aggregate(supporting)
		if !found || score.Confidence > best.Score.Confidence {
			best = Decision{Market: market, Side: side, Score: score, Signals: supporting}
			found = true
		}
	}

	return best, found
}

func clamp(v, ceiling float64) float64 {
	return math.Max(0, math.Min(ceiling, v))
}
