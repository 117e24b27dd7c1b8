package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideLine(t *testing.T) {
	assert.Equal(t, 6.5, MarketSpread.SideLine(SideAway, -6.5))
	assert.Equal(t, -6.5, MarketSpread.SideLine(SideHome, -6.5))
	assert.Equal(t, 218.5, MarketTotal.SideLine(SideUnder, 218.5))
	assert.Equal(t, 218.5, MarketTotal.SideLine(SideOver, 218.5))
}

func TestMovement(t *testing.T) {
	tests := []struct {
		name     string
		market   Market
		side     Side
		from, to float64
		want     float64
	}{
		// home -4 -> -6.5 is away +4 -> +6.5
		{"away spread gains points", MarketSpread, SideAway, 4, 6.5, 2.5},
		{"home spread lays more", MarketSpread, SideHome, -4, -6.5, -2.5},
		{"total down favors under", MarketTotal, SideUnder, 223.5, 218.5, 5},
		{"total down hurts over", MarketTotal, SideOver, 223.5, 218.5, -5},
		{"no move", MarketTotal, SideOver, 220, 220, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.market.Movement(tt.side, tt.from, tt.to))
		})
	}
}

func TestOppositeAndRank(t *testing.T) {
	assert.Equal(t, SideAway, SideHome.Opposite())
	assert.Equal(t, SideOver, SideUnder.Opposite())
	assert.Equal(t, SideNone, SideNone.Opposite())

	assert.Greater(t, TierOne.Rank(), TierTwo.Rank())
	assert.Greater(t, TierTwo.Rank(), TierLean.Rank())
	assert.Greater(t, TierLean.Rank(), TierPass.Rank())
	assert.True(t, TierChange{FromTier: TierLean, ToTier: TierOne}.Promoted())
	assert.False(t, TierChange{FromTier: TierOne, ToTier: TierPass}.Promoted())
}

func TestParseATSRecord(t *testing.T) {
	r, err := ParseATSRecord(" 7-3 ")
	require.NoError(t, err)
	assert.Equal(t, ATSRecord{Wins: 7, Losses: 3}, r)
	assert.Equal(t, "7-3", r.String())

	rate, ok := r.WinRate()
	assert.True(t, ok)
	assert.InDelta(t, 0.7, rate, 1e-9)

	for _, bad := range []string{"", "7", "7-3-1", "a-3", "-1-3"} {
		_, err := ParseATSRecord(bad)
		assert.Error(t, err, bad)
	}

	_, ok = ATSRecord{}.WinRate()
	assert.False(t, ok)
}

func TestATSRecordUnmarshal(t *testing.T) {
	for _, raw := range []string{`"8-2"`, `[8, 2]`, `{"wins": 8, "losses": 2}`} {
		var r ATSRecord
		require.NoError(t, json.Unmarshal([]byte(raw), &r), raw)
		assert.Equal(t, ATSRecord{Wins: 8, Losses: 2}, r, raw)
	}

	var r ATSRecord
	assert.Error(t, json.Unmarshal([]byte(`[8]`), &r))
	assert.Error(t, json.Unmarshal([]byte(`"x-y"`), &r))
}

func TestSnapshotValidate(t *testing.T) {
	ok := MarketSnapshot{GameID: "g1", Timestamp: time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)}
	assert.NoError(t, ok.Validate())

	noID := ok
	noID.GameID = "  "
	assert.True(t, errors.Is(noID.Validate(), ErrMalformedSnapshot))

	noTime := ok
	noTime.Timestamp = time.Time{}
	assert.ErrorIs(t, noTime.Validate(), ErrMalformedSnapshot)
}

func TestCurrentLine(t *testing.T) {
	spread := -3.5
	s := MarketSnapshot{CurrentSpread: &spread}

	v, ok := s.CurrentLine(MarketSpread)
	assert.True(t, ok)
	assert.Equal(t, -3.5, v)

	_, ok = s.CurrentLine(MarketTotal)
	assert.False(t, ok)
	_, ok = s.CurrentLine(MarketMoneyline)
	assert.False(t, ok)
}

func TestSignalSupports(t *testing.T) {
	sided := Signal{Market: MarketSpread, Side: SideAway}
	neutral := Signal{Market: MarketSpread}

	assert.True(t, sided.Supports(MarketSpread, SideAway))
	assert.False(t, sided.Supports(MarketSpread, SideHome))
	assert.False(t, sided.Supports(MarketTotal, SideAway))
	assert.True(t, neutral.Supports(MarketSpread, SideHome))
}

func TestPickCloneIsDeep(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	line := 218.5
	p := &Pick{
		ID:          NewPickID(),
		GameID:      "g1",
		Market:      MarketTotal,
		Line:        &line,
		LastLine:    clonePtr(&line),
		Signals:     []Signal{{Type: SignalRLMTotal}},
		TierHistory: []TierChange{},
	}
	p.MarkGraded(at)

	c := p.Clone()
	assert.Equal(t, p, c)

	c.Signals[0].Confidence = 50
	c.AppendTierChange(TierChange{ToTier: TierPass})
	*c.GradedAt = at.Add(time.Hour)
	*c.Line, *c.LastLine = 221, 221

	assert.Zero(t, p.Signals[0].Confidence)
	assert.Empty(t, p.TierHistory)
	assert.Equal(t, at, *p.GradedAt)
	assert.Equal(t, 218.5, *p.Line)
	assert.Equal(t, 218.5, *p.LastLine)
	assert.Equal(t, "g1:TOTAL", p.Key())
}
