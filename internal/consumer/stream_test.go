package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageSnapshot(t *testing.T) {
	msg, err := ParseMessage("markets.snapshots.basketball_nba", redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			"data": `{"game_id":"g1","home_team":"BOS","away_team":"LAL","timestamp":"2026-01-15T19:00:00Z",
				"opening_spread":-4,"current_spread":-6.5,"public_spread_pct":57,
				"home_ats_last10":"7-3","away_ats_last10":[2,8]}`,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Snapshot)
	assert.Nil(t, msg.Final)

	s := msg.Snapshot
	assert.Equal(t, "g1", msg.GameID())
	assert.Equal(t, -6.5, *s.CurrentSpread)
	assert.Equal(t, 7, s.HomeATSLast10.Wins)
	assert.Equal(t, 8, s.AwayATSLast10.Losses)
	assert.Nil(t, s.PublicTotalPct)
}

func TestParseMessageGameFinal(t *testing.T) {
	msg, err := ParseMessage("games.final.basketball_nba", redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"data": `{"game_id":"g1","finished_at":"2026-01-15T21:30:00Z"}`},
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Final)
	assert.Equal(t, "g1", msg.GameID())
	assert.Equal(t, time.Date(2026, 1, 15, 21, 30, 0, 0, time.UTC), msg.Final.FinishedAt)
}

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		values map[string]interface{}
	}{
		{"missing data", "markets.snapshots.x", map[string]interface{}{"payload": "{}"}},
		{"bad snapshot json", "markets.snapshots.x", map[string]interface{}{"data": "{"}},
		{"bad ats record", "markets.snapshots.x", map[string]interface{}{"data": `{"game_id":"g","home_ats_last10":"7to3"}`}},
		{"final without game", "games.final.x", map[string]interface{}{"data": `{}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(tt.stream, redis.XMessage{ID: "1-0", Values: tt.values})
			assert.Error(t, err)
		})
	}
}

func TestEnsureGroups(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewStreamConsumer(db, "pick-engine-1", "pick-engine")
	ctx := context.Background()

	mock.ExpectXGroupCreateMkStream("markets.snapshots.basketball_nba", "pick-engine", "0").SetVal("OK")
	mock.ExpectXGroupCreateMkStream("games.final.basketball_nba", "pick-engine", "0").
		SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))

	require.NoError(t, c.EnsureGroups(ctx, []string{"markets.snapshots.basketball_nba", "games.final.basketball_nba"}))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectXGroupCreateMkStream("markets.snapshots.basketball_nba", "pick-engine", "0").
		SetErr(errors.New("NOPERM"))
	assert.Error(t, c.EnsureGroups(ctx, []string{"markets.snapshots.basketball_nba"}))
}

func TestAckMessage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewStreamConsumer(db, "pick-engine-1", "pick-engine")

	mock.ExpectXAck("markets.snapshots.basketball_nba", "pick-engine", "1-0").SetVal(1)
	require.NoError(t, c.AckMessage(context.Background(), "markets.snapshots.basketball_nba", "1-0"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeFailsWhenGroupCannotBeCreated(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewStreamConsumer(db, "pick-engine-1", "pick-engine")

	mock.ExpectXGroupCreateMkStream("markets.snapshots.basketball_nba", "pick-engine", "0").
		SetErr(errors.New("READONLY"))

	msgs, errs := c.Consume(context.Background(), []string{"markets.snapshots.basketball_nba"})

	err, ok := <-errs
	require.True(t, ok)
	assert.Contains(t, err.Error(), "READONLY")

	_, open := <-msgs
	assert.False(t, open)
}
