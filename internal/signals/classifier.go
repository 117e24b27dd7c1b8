package signals

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// Level grades how far past its trigger threshold a signal sits
type Level string

const (
	LevelModerate Level = "MODERATE"
	LevelStrong   Level = "STRONG"
	LevelElite    Level = "ELITE"
)

// Classification is the classifier's verdict for one signal
type Classification struct {
	Category models.SignalCategory
	Weight   float64
	Level    Level
}

type entry struct {
	category models.SignalCategory
	weight   float64
}

// table is the persisted type contract. Moving a type between categories
// breaks stored picks and notification formatting.
var table = map[models.SignalType]entry{
	models.SignalRLMSpread:          {models.CategoryPrimary, 1.0},
	models.SignalRLMTotal:           {models.CategoryPrimary, 1.0},
	models.SignalMLSpreadDivergence: {models.CategoryPrimary, 1.0},
	models.SignalLineFreeze:         {models.CategoryPrimary, 1.0},

	// confirmations scale the nominal boost by how much they have historically
	// added: ATS 5, rest days 4, others 3
	models.SignalATSExtreme:            {models.CategoryConfirmation, 1.0},
	models.SignalRestAdvantage:         {models.CategoryConfirmation, 0.8},
	models.SignalBookDisagreement:      {models.CategoryConfirmation, 0.6},
	models.SignalCrossSourceDivergence: {models.CategoryConfirmation, 0.6},
	models.SignalPaceMismatch:          {models.CategoryConfirmation, 0.6},
	models.SignalHomeRoadSplit:         {models.CategoryConfirmation, 0.6},
}

// Types returns every known signal type
func Types() []models.SignalType {
	return []models.SignalType{
		models.SignalRLMSpread,
		models.SignalRLMTotal,
		models.SignalMLSpreadDivergence,
		models.SignalLineFreeze,
		models.SignalATSExtreme,
		models.SignalBookDisagreement,
		models.SignalCrossSourceDivergence,
		models.SignalPaceMismatch,
		models.SignalRestAdvantage,
		models.SignalHomeRoadSplit,
	}
}

// CategoryOf returns the fixed category of a known type, or "" if unknown
func CategoryOf(t models.SignalType) models.SignalCategory {
	return table[t].category
}

// Classifier maps (type, magnitude) to category, weight and strength level.
// It holds only the immutable thresholds it was built with.
type Classifier struct {
	cfg config.EngineConfig
}

// NewClassifier creates a classifier for the given thresholds
func NewClassifier(cfg config.EngineConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify looks up a signal type
func (c *Classifier) Classify(t models.SignalType, magnitude float64) (Classification, error) {
	e, ok := table[t]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %q", models.ErrUnknownSignalType, t)
	}

	return Classification{
		Category: e.category,
		Weight:   e.weight,
		Level:    c.level(t, magnitude),
	}, nil
}

// Describe prefixes a primary signal's description with its strength level
func (c Classification) Describe(desc string) string {
	if c.Category != models.CategoryPrimary || c.Level == "" {
		return desc
	}
	return fmt.Sprintf("[%s] %s", c.Level, desc)
}

// Apply returns the signal with its category set from the contract table
func (c *Classifier) Apply(sig models.Signal) (models.Signal, Classification, error) {
	cls, err := c.Classify(sig.Type, sig.Magnitude)
	if err != nil {
		return sig, cls, err
	}
	sig.Category = cls.Category
	return sig, cls, nil
}

// Weight returns the aggregation weight of a type, 0 when unknown
func (c *Classifier) Weight(t models.SignalType) float64 {
	return table[t].weight
}

func (c *Classifier) level(t models.SignalType, magnitude float64) Level {
	var strong, elite float64

	switch t {
	case models.SignalRLMSpread:
		strong, elite = c.cfg.SpreadRLM.StrongMove, c.cfg.SpreadRLM.EliteMove
	case models.SignalRLMTotal:
		strong, elite = c.cfg.TotalRLM.StrongMove, c.cfg.TotalRLM.EliteMove
	case models.SignalMLSpreadDivergence:
		strong, elite = c.cfg.Divergence.StrongGap, c.cfg.Divergence.EliteGap
	case models.SignalLineFreeze:
		strong, elite = c.cfg.LineFreeze.StrongHours, c.cfg.LineFreeze.EliteHours
	default:
		return LevelModerate
	}

	switch {
	case magnitude >= elite:
		return LevelElite
	case magnitude >= strong:
		return LevelStrong
	default:
		return LevelModerate
	}
}
