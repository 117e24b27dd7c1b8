package oddsmath

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestFindBestLine(t *testing.T) {
	quotes := []models.BookQuote{
		{BookName: "fanduel", Spread: f(-6.5), Total: f(218.5), Price: i(-110)},
		{BookName: "draftkings", Spread: f(-6.0), Total: f(219.0), Price: i(-115)},
		{BookName: "betmgm", Spread: f(-7.0), Total: f(218.0)},
		{BookName: "caesars", Spread: f(-6.0), Total: f(219.0), Price: i(-105)},
		{BookName: "moneyline-only", Moneyline: i(-240)},
	}

	tests := []struct {
		name     string
		market   models.Market
		side     models.Side
		wantBook string
		wantLine float64
	}{
		{"away takes the most points", models.MarketSpread, models.SideAway, "betmgm", 7.0},
		{"home lays the fewest, price breaks tie", models.MarketSpread, models.SideHome, "caesars", -6.0},
		{"under wants the highest total", models.MarketTotal, models.SideUnder, "caesars", 219.0},
		{"over wants the lowest total", models.MarketTotal, models.SideOver, "betmgm", 218.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := FindBestLine(quotes, tt.market, tt.side)
			require.True(t, ok)
			assert.Equal(t, tt.wantBook, best.Book)
			assert.Equal(t, tt.wantLine, best.Line)
		})
	}
}

func TestFindBestLineDefaultsPrice(t *testing.T) {
	best, ok := FindBestLine([]models.BookQuote{{BookName: "betmgm", Spread: f(-3)}}, models.MarketSpread, models.SideHome)
	require.True(t, ok)
	assert.Equal(t, StandardPrice, best.Price)
}

func TestFindBestLineNoQuotes(t *testing.T) {
	_, ok := FindBestLine(nil, models.MarketSpread, models.SideHome)
	assert.False(t, ok)

	_, ok = FindBestLine([]models.BookQuote{{BookName: "x", Total: f(210)}}, models.MarketSpread, models.SideAway)
	assert.False(t, ok)
}
