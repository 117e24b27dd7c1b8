package oddsmath

import (
	"errors"
	"fmt"
)

// StandardPrice is the vig-inclusive price assumed when a book quotes a line without one
const StandardPrice = -110

// ErrZeroOdds is returned for an American price of 0, which has no meaning
var ErrZeroOdds = errors.New("invalid American odds: cannot be 0")

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -150 → 1.67
func AmericanToDecimal(american int) (float64, error) {
	switch {
	case american == 0:
		return 0, ErrZeroOdds
	case american > 0:
		return float64(american)/100.0 + 1.0, nil
	default:
		return 100.0/float64(-american) + 1.0, nil
	}
}

// ImpliedProbability returns the break-even win probability for an American price
func ImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, fmt.Errorf("implied probability: %w", err)
	}
	return 1.0 / decimal, nil
}

// BetterPrice reports whether price a pays more than price b, i.e. needs a
// lower break-even probability. Invalid prices never win.
func BetterPrice(a, b int) bool {
	pa, errA := ImpliedProbability(a)
	if errA != nil {
		return false
	}
	pb, errB := ImpliedProbability(b)
	if errB != nil {
		return true
	}
	return pa < pb
}
