package models

// Market identifies the bet type a pick or signal belongs to
type Market string

const (
	MarketSpread    Market = "SPREAD"
	MarketTotal     Market = "TOTAL"
	MarketMoneyline Market = "MONEYLINE"
)

// Side is the outcome a signal or pick favors. Empty means side-neutral.
type Side string

const (
	SideNone  Side = ""
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Opposite returns the other side of a two-way market
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	case SideOver:
		return SideUnder
	case SideUnder:
		return SideOver
	}
	return SideNone
}

// SideLine converts a raw market number into the number quoted for side.
// Spreads are stored from the home perspective, so the away line is negated.
// Totals are the same number for both sides.
func (m Market) SideLine(side Side, raw float64) float64 {
	if m == MarketSpread && side == SideAway {
		return -raw
	}
	return raw
}

// Movement returns how many points the market moved toward side when its
// quoted number went from `from` to `to` (both already in side terms, see SideLine).
// Positive is toward the side, negative is against it.
//
// A side's spread number growing (more points received, fewer laid) is movement
// toward it. For totals the Over moves with the number and the Under against it.
func (m Market) Movement(side Side, from, to float64) float64 {
	if m == MarketTotal && side == SideUnder {
		return from - to
	}
	return to - from
}

// Tier is the discrete action category derived from a confidence score
type Tier string

const (
	TierOne  Tier = "TIER_1"
	TierTwo  Tier = "TIER_2"
	TierLean Tier = "LEAN"
	TierPass Tier = "PASS"
)

// Rank orders tiers: TIER_1 > TIER_2 > LEAN > PASS
func (t Tier) Rank() int {
	switch t {
	case TierOne:
		return 3
	case TierTwo:
		return 2
	case TierLean:
		return 1
	}
	return 0
}
