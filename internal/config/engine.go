package config

import (
	"errors"
	"fmt"
)

// TierThresholds are the minimum confidences for each actionable tier.
// Anything below Lean is PASS.
type TierThresholds struct {
	Tier1 float64 `yaml:"tier1"`
	Tier2 float64 `yaml:"tier2"`
	Lean  float64 `yaml:"lean"`
}

var (
	// StrictTiers is the 85/75/60 threshold set (default)
	StrictTiers = TierThresholds{Tier1: 85, Tier2: 75, Lean: 60}

	// RelaxedTiers is the 80/70/60 threshold set
	RelaxedTiers = TierThresholds{Tier1: 80, Tier2: 70, Lean: 60}
)

// SpreadRLMConfig tunes spread reverse-line-movement detection
type SpreadRLMConfig struct {
	MinMove       float64 `yaml:"min_move"`       // points
	FullMove      float64 `yaml:"full_move"`      // movement where confidence saturates
	MinPublicPct  float64 `yaml:"min_public_pct"` // share on the public side
	MinConfidence float64 `yaml:"min_confidence"`
	MaxConfidence float64 `yaml:"max_confidence"`
	StrongMove    float64 `yaml:"strong_move"`
	EliteMove     float64 `yaml:"elite_move"`
}

// TotalRLMConfig tunes total reverse-line-movement detection
type TotalRLMConfig struct {
	MinMove       float64 `yaml:"min_move"`
	StrongMove    float64 `yaml:"strong_move"` // confidence saturates here
	EliteMove     float64 `yaml:"elite_move"`
	MinPublicPct  float64 `yaml:"min_public_pct"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxConfidence float64 `yaml:"max_confidence"`
}

// DivergenceConfig tunes moneyline/spread split divergence
type DivergenceConfig struct {
	MinGap        float64 `yaml:"min_gap"`
	StrongGap     float64 `yaml:"strong_gap"` // confidence saturates here
	EliteGap      float64 `yaml:"elite_gap"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxConfidence float64 `yaml:"max_confidence"`
}

// ATSConfig tunes the ATS trend extreme confirmation
type ATSConfig struct {
	HotRate       float64 `yaml:"hot_rate"`
	ColdRate      float64 `yaml:"cold_rate"`
	MinGames      int     `yaml:"min_games"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxConfidence float64 `yaml:"max_confidence"`
}

// BookDisagreementConfig tunes cross-book spread disagreement
type BookDisagreementConfig struct {
	MinRange       float64 `yaml:"min_range"`
	BaseConfidence float64 `yaml:"base_confidence"`
	PerPoint       float64 `yaml:"per_point"`
	MaxConfidence  float64 `yaml:"max_confidence"`
}

// LineFreezeConfig tunes frozen-line detection over the line history
type LineFreezeConfig struct {
	TrapPublicPct float64 `yaml:"trap_public_pct"`
	HoldPublicPct float64 `yaml:"hold_public_pct"`
	MaxMovement   float64 `yaml:"max_movement"`
	MinHours      float64 `yaml:"min_hours"`
	StrongHours   float64 `yaml:"strong_hours"`
	EliteHours    float64 `yaml:"elite_hours"`

	StrongTrap FreezeScore `yaml:"strong_trap"` // trap public, held StrongHours
	Trap       FreezeScore `yaml:"trap"`
	Hold       FreezeScore `yaml:"hold"` // scored from HoldPublicPct
}

// FreezeScore is min(Cap, Base + PctSlope*pct past threshold + HourRate*hours)
type FreezeScore struct {
	Base     float64 `yaml:"base"`
	PctSlope float64 `yaml:"pct_slope"`
	HourRate float64 `yaml:"hour_rate"`
	Cap      float64 `yaml:"cap"`
}

// RestConfig tunes the rest advantage confirmation
type RestConfig struct {
	MinRestGap int     `yaml:"min_rest_gap"` // days
	Confidence float64 `yaml:"confidence"`
}

// CrossSourceConfig tunes split disagreement between data sources
type CrossSourceConfig struct {
	MinGap     float64 `yaml:"min_gap"`
	Confidence float64 `yaml:"confidence"`
}

// ConfidenceConfig tunes the aggregator
type ConfidenceConfig struct {
	NominalBoost float64 `yaml:"nominal_boost"` // first confirmation's boost
	Ceiling      float64 `yaml:"ceiling"`

	// OrderByConfidence applies confirmation boosts strongest-first.
	// When false, boosts follow detection order.
	OrderByConfidence bool `yaml:"order_by_confidence"`
}

// DecayConfig tunes pick re-evaluation
type DecayConfig struct {
	FreshHours        float64 `yaml:"fresh_hours"`
	RatePerHour       float64 `yaml:"rate_per_hour"`
	MaxTimeDecay      float64 `yaml:"max_time_decay"`
	FavorablePerPoint float64 `yaml:"favorable_per_point"`
	AdverseDeadZone   float64 `yaml:"adverse_dead_zone"`
	AdversePerPoint   float64 `yaml:"adverse_per_point"`
	InjuryPenalty     float64 `yaml:"injury_penalty"`
	LeakJump          float64 `yaml:"leak_jump"`
	LeakPenalty       float64 `yaml:"leak_penalty"`
}

// EngineConfig is the immutable threshold set handed to detectors,
// the aggregator and the decay engine at construction
type EngineConfig struct {
	SpreadRLM        SpreadRLMConfig        `yaml:"spread_rlm"`
	TotalRLM         TotalRLMConfig         `yaml:"total_rlm"`
	Divergence       DivergenceConfig       `yaml:"divergence"`
	ATS              ATSConfig              `yaml:"ats"`
	BookDisagreement BookDisagreementConfig `yaml:"book_disagreement"`
	LineFreeze       LineFreezeConfig       `yaml:"line_freeze"`
	Rest             RestConfig             `yaml:"rest"`
	CrossSource      CrossSourceConfig      `yaml:"cross_source"`
	Confidence       ConfidenceConfig       `yaml:"confidence"`
	Tiers            TierThresholds         `yaml:"tiers"`
	Decay            DecayConfig            `yaml:"decay"`
}

// DefaultEngineConfig returns the production thresholds
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SpreadRLM: SpreadRLMConfig{
			MinMove:       1.5,
			FullMove:      4.0,
			MinPublicPct:  55,
			MinConfidence: 75,
			MaxConfidence: 90,
			StrongMove:    2.5,
			EliteMove:     3.5,
		},
		TotalRLM: TotalRLMConfig{
			MinMove:       2.0,
			StrongMove:    4.0,
			EliteMove:     5.0,
			MinPublicPct:  60,
			MinConfidence: 80,
			MaxConfidence: 90,
		},
		Divergence: DivergenceConfig{
			MinGap:        15,
			StrongGap:     30,
			EliteGap:      40,
			MinConfidence: 70,
			MaxConfidence: 85,
		},
		ATS: ATSConfig{
			HotRate:       0.70,
			ColdRate:      0.30,
			MinGames:      8,
			MinConfidence: 65,
			MaxConfidence: 70,
		},
		BookDisagreement: BookDisagreementConfig{
			MinRange:       2.0,
			BaseConfidence: 60,
			PerPoint:       5,
			MaxConfidence:  70,
		},
		LineFreeze: LineFreezeConfig{
			TrapPublicPct: 70,
			HoldPublicPct: 60,
			MaxMovement:   0.5,
			MinHours:      2,
			StrongHours:   4,
			EliteHours:    6,
			StrongTrap:    FreezeScore{Base: 70, PctSlope: 1.5, HourRate: 2, Cap: 95},
			Trap:          FreezeScore{Base: 60, PctSlope: 1, HourRate: 3, Cap: 85},
			Hold:          FreezeScore{Base: 50, PctSlope: 1.5, HourRate: 2, Cap: 75},
		},
		Rest: RestConfig{
			MinRestGap: 2,
			Confidence: 62,
		},
		CrossSource: CrossSourceConfig{
			MinGap:     15,
			Confidence: 60,
		},
		Confidence: ConfidenceConfig{
			NominalBoost:      5,
			Ceiling:           95,
			OrderByConfidence: true,
		},
		Tiers: StrictTiers,
		Decay: DecayConfig{
			FreshHours:        2,
			RatePerHour:       1.5,
			MaxTimeDecay:      15,
			FavorablePerPoint: 2,
			AdverseDeadZone:   1,
			AdversePerPoint:   4,
			InjuryPenalty:     15,
			LeakJump:          2,
			LeakPenalty:       10,
		},
	}
}

// Validate rejects threshold sets that would break tier totality or detector math
func (c EngineConfig) Validate() error {
	var errs []error

	t := c.Tiers
	if !(t.Tier1 > t.Tier2 && t.Tier2 > t.Lean && t.Lean > 0) {
		errs = append(errs, fmt.Errorf("tier thresholds must be strictly decreasing and positive, got %.1f/%.1f/%.1f", t.Tier1, t.Tier2, t.Lean))
	}
	if c.Confidence.Ceiling <= 0 || c.Confidence.Ceiling > 100 {
		errs = append(errs, fmt.Errorf("confidence ceiling must be in (0,100], got %.1f", c.Confidence.Ceiling))
	}
	if c.Confidence.NominalBoost < 0 {
		errs = append(errs, errors.New("nominal confirmation boost must not be negative"))
	}
	if c.SpreadRLM.FullMove <= c.SpreadRLM.MinMove {
		errs = append(errs, errors.New("spread RLM full_move must exceed min_move"))
	}
	if c.TotalRLM.StrongMove <= c.TotalRLM.MinMove {
		errs = append(errs, errors.New("total RLM strong_move must exceed min_move"))
	}
	if c.Divergence.StrongGap <= c.Divergence.MinGap {
		errs = append(errs, errors.New("divergence strong_gap must exceed min_gap"))
	}
	if c.ATS.HotRate <= 0.5 || c.ATS.ColdRate >= 0.5 {
		errs = append(errs, errors.New("ATS hot_rate must be above 0.5 and cold_rate below 0.5"))
	}
	if c.Decay.MaxTimeDecay < 0 || c.Decay.RatePerHour < 0 {
		errs = append(errs, errors.New("decay rates must not be negative"))
	}

	return errors.Join(errs...)
}
