package oddsmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		american int
		expected float64
		wantErr  bool
	}{
		{"Positive +150", 150, 2.50, false},
		{"Positive +100", 100, 2.00, false},
		{"Negative -110", -110, 1.909, false},
		{"Negative -200", -200, 1.50, false},
		{"Zero", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmericanToDecimal(tt.american)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrZeroOdds)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.001)
		})
	}
}

func TestImpliedProbability(t *testing.T) {
	p, err := ImpliedProbability(-110)
	require.NoError(t, err)
	assert.InDelta(t, 0.5238, p, 0.0001)

	_, err = ImpliedProbability(0)
	assert.ErrorIs(t, err, ErrZeroOdds)
}

func TestBetterPrice(t *testing.T) {
	assert.True(t, BetterPrice(-105, -110))
	assert.True(t, BetterPrice(+120, -110))
	assert.False(t, BetterPrice(-115, -110))
	assert.False(t, BetterPrice(0, -110))
	assert.True(t, BetterPrice(-110, 0))
}
