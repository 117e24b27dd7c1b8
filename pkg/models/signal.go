package models

// SignalType enumerates the detected conditions. The set and each type's
// category are a persisted contract: notification formatting and stored
// picks depend on them.
type SignalType string

const (
	SignalRLMSpread             SignalType = "RLM_SPREAD"
	SignalRLMTotal              SignalType = "RLM_TOTAL"
	SignalMLSpreadDivergence    SignalType = "ML_SPREAD_DIVERGENCE"
	SignalLineFreeze            SignalType = "LINE_FREEZE"
	SignalATSExtreme            SignalType = "ATS_EXTREME"
	SignalBookDisagreement      SignalType = "BOOK_DISAGREEMENT"
	SignalCrossSourceDivergence SignalType = "CROSS_SOURCE_DIVERGENCE"
	SignalPaceMismatch          SignalType = "PACE_MISMATCH"
	SignalRestAdvantage         SignalType = "REST_ADVANTAGE"
	SignalHomeRoadSplit         SignalType = "HOME_ROAD_SPLIT"
)

// SignalCategory separates bet triggers from supporting evidence
type SignalCategory string

const (
	CategoryPrimary      SignalCategory = "PRIMARY"
	CategoryConfirmation SignalCategory = "CONFIRMATION"
)

// Signal is an immutable detected condition
type Signal struct {
	Type        SignalType     `json:"type"`
	Category    SignalCategory `json:"category"`
	Market      Market         `json:"market"`
	Side        Side           `json:"side,omitempty"`
	Confidence  float64        `json:"confidence"` // 0-100
	Magnitude   float64        `json:"magnitude"`  // raw evidence (points, % gap, win rate)
	Description string         `json:"description"`
}

// IsPrimary reports whether the signal can trigger a pick on its own
func (s Signal) IsPrimary() bool {
	return s.Category == CategoryPrimary
}

// Supports reports whether the signal applies to a pick on market/side.
// Side-neutral signals support either side of their market.
func (s Signal) Supports(market Market, side Side) bool {
	if s.Market != market {
		return false
	}
	return s.Side == SideNone || s.Side == side
}
