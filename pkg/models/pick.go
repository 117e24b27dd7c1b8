package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Pick is the durable output of the engine. Confidence and Tier change only
// through decay; Signals are fixed at creation; TierHistory is append-only.
type Pick struct {
	ID       string `json:"id"`
	GameID   string `json:"game_id"`
	SportKey string `json:"sport_key,omitempty"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Market   Market `json:"market"`
	Side     Side   `json:"side"`

	// Line is quoted for Side (see Market.SideLine). Nil until the market
	// quotes a number; the first quote seen becomes the baseline.
	Line      *float64 `json:"line"`
	BestBook  string   `json:"best_book,omitempty"`
	BestPrice int      `json:"best_price,omitempty"`

	BaseConfidence float64 `json:"base_confidence"`
	Confidence     float64 `json:"confidence"`
	Tier           Tier    `json:"tier"`

	Signals     []Signal     `json:"signals"`
	TierHistory []TierChange `json:"tier_history"`
	Adjustments []Adjustment `json:"adjustments,omitempty"` // factors from the latest evaluation

	CreatedAt       time.Time `json:"created_at"`
	LastEvaluatedAt time.Time `json:"last_evaluated_at"`
	LastLine        *float64  `json:"last_line"` // side line seen at the previous re-evaluation

	InjuryApplied bool `json:"injury_applied"`
	LeakJumps     int  `json:"leak_jumps"`

	Graded   bool       `json:"graded"`
	GradedAt *time.Time `json:"graded_at,omitempty"`
}

// TierChange is one audit entry for a promotion or demotion
type TierChange struct {
	At         time.Time `json:"at"`
	FromTier   Tier      `json:"from_tier"`
	ToTier     Tier      `json:"to_tier"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// Promoted reports whether the change moved the pick to a stronger tier
func (c TierChange) Promoted() bool {
	return c.ToTier.Rank() > c.FromTier.Rank()
}

// Adjustment is a single decay factor applied during an evaluation
type Adjustment struct {
	Name   string  `json:"name"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// NewPickID returns a fresh pick identifier
func NewPickID() string {
	return uuid.NewString()
}

// Key identifies the open pick for a game and market
func (p *Pick) Key() string {
	return PickKey(p.GameID, p.Market)
}

// PickKey builds the tracker key for a game and market
func PickKey(gameID string, market Market) string {
	return fmt.Sprintf("%s:%s", gameID, market)
}

// AppendTierChange records a transition. Existing entries are never rewritten.
func (p *Pick) AppendTierChange(change TierChange) {
	p.TierHistory = append(p.TierHistory, change)
}

// MarkGraded makes the pick terminal
func (p *Pick) MarkGraded(at time.Time) {
	p.Graded = true
	p.GradedAt = &at
}

// Clone returns a deep copy safe to hand to readers
func (p *Pick) Clone() *Pick {
	c := *p
	c.Signals = slices.Clone(p.Signals)
	c.TierHistory = slices.Clone(p.TierHistory)
	c.Adjustments = slices.Clone(p.Adjustments)
	c.Line = clonePtr(p.Line)
	c.LastLine = clonePtr(p.LastLine)
	if p.GradedAt != nil {
		at := *p.GradedAt
		c.GradedAt = &at
	}
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
