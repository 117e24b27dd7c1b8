package picks

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/confidence"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/detector"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/signals"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/oddsmath"
)

// markets are evaluated in this order; it also breaks confidence ties in GeneratePick
var markets = []models.Market{models.MarketSpread, models.MarketTotal, models.MarketMoneyline}

// Generator turns a snapshot into picks: detect, classify, aggregate, tier
type Generator struct {
	detectors  []contracts.SignalDetector
	classifier *signals.Classifier
	aggregator *confidence.Aggregator
	tiers      config.TierThresholds
	logger     zerolog.Logger
}

// NewGenerator creates a generator with the full detector set
func NewGenerator(cfg config.EngineConfig, logger zerolog.Logger) *Generator {
	classifier := signals.NewClassifier(cfg)
	return &Generator{
		detectors:  detector.NewSet(cfg),
		classifier: classifier,
		aggregator: confidence.NewAggregator(cfg.Confidence, classifier),
		tiers:      cfg.Tiers,
		logger:     logger.With().Str("component", "generator").Logger(),
	}
}

// WithDetectors swaps the detector set. Used for threshold experiments and tests.
func (g *Generator) WithDetectors(detectors ...contracts.SignalDetector) *Generator {
	c := *g
	c.detectors = detectors
	return &c
}

// Signals runs every detector and the classifier over the snapshot. External
// signals (model scores, pace or split feeds) may only confirm; anything else
// from outside is dropped.
func (g *Generator) Signals(snapshot models.MarketSnapshot, external ...models.Signal) []models.Signal {
	raw := detector.Run(g.detectors, snapshot)

	out := make([]models.Signal, 0, len(raw)+len(external))
	for _, sig := range raw {
		classified, cls, err := g.classifier.Apply(sig)
		if err != nil {
			g.logger.Warn().Err(err).Str("game_id", snapshot.GameID).Msg("dropping detector signal")
			continue
		}
		classified.Description = cls.Describe(classified.Description)
		out = append(out, classified)
	}

	for _, sig := range external {
		classified, cls, err := g.classifier.Apply(sig)
		if err != nil {
			g.logger.Warn().Err(err).Str("game_id", snapshot.GameID).Msg("dropping external signal")
			continue
		}
		if classified.IsPrimary() {
			g.logger.Warn().
				Str("game_id", snapshot.GameID).
				Str("type", string(sig.Type)).
				Msg("external signal cannot be primary, dropping")
			continue
		}
		g.logger.Debug().
			Str("game_id", snapshot.GameID).
			Str("type", string(sig.Type)).
			Float64("weight", cls.Weight).
			Msg("external confirmation accepted")
		out = append(out, classified)
	}

	if len(out) == 0 {
		g.logger.Trace().Str("game_id", snapshot.GameID).Msg("no signals")
	}

	return out
}

// GeneratePicks returns one pick per market that has a primary signal
func (g *Generator) GeneratePicks(snapshot models.MarketSnapshot, external ...models.Signal) ([]*models.Pick, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	set := g.Signals(snapshot, external...)

	var out []*models.Pick
	for _, market := range markets {
		decision, ok := g.aggregator.Decide(market, set)
		if !ok {
			continue
		}
		out = append(out, g.build(snapshot, decision))
	}

	return out, nil
}

// GeneratePick returns the strongest pick for the snapshot, or nil when no
// primary signal fired. Returning nil is not an error.
func (g *Generator) GeneratePick(snapshot models.MarketSnapshot, external ...models.Signal) (*models.Pick, error) {
	all, err := g.GeneratePicks(snapshot, external...)
	if err != nil || len(all) == 0 {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	return all[0], nil
}

func (g *Generator) build(snapshot models.MarketSnapshot, d confidence.Decision) *models.Pick {
	pick := &models.Pick{
		ID:              models.NewPickID(),
		GameID:          snapshot.GameID,
		SportKey:        snapshot.SportKey,
		HomeTeam:        snapshot.HomeTeam,
		AwayTeam:        snapshot.AwayTeam,
		Market:          d.Market,
		Side:            d.Side,
		BaseConfidence:  d.Score.Confidence,
		Confidence:      d.Score.Confidence,
		Tier:            confidence.ClassifyTier(d.Score.Confidence, g.tiers),
		Signals:         d.Signals,
		TierHistory:     []models.TierChange{},
		CreatedAt:       snapshot.Timestamp,
		LastEvaluatedAt: snapshot.Timestamp,
	}

	if raw, ok := snapshot.CurrentLine(d.Market); ok {
		line := d.Market.SideLine(d.Side, raw)
		pick.Line = &line
	}

	if best, ok := oddsmath.FindBestLine(snapshot.BooksQuotes, d.Market, d.Side); ok {
		pick.BestBook = best.Book
		pick.BestPrice = best.Price
	}

	return pick
}
