package picks

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/decay"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

func trackedPicks(t *testing.T) (*Tracker, []*models.Pick) {
	t.Helper()

	cfg := config.DefaultEngineConfig()
	all, err := NewGenerator(cfg, zerolog.Nop()).GeneratePicks(rlmSnapshot())
	require.NoError(t, err)
	require.Len(t, all, 2)

	tracker := NewTracker(decay.NewEngine(cfg))
	for _, p := range all {
		require.True(t, tracker.Track(p))
	}
	return tracker, all
}

func laterSnapshot(hours float64) models.MarketSnapshot {
	s := rlmSnapshot()
	s.Timestamp = tipoff.Add(time.Duration(hours * float64(time.Hour)))
	return s
}

func TestTrackKeepsFirstPick(t *testing.T) {
	tracker, all := trackedPicks(t)

	dup := all[0].Clone()
	dup.ID = "another"
	assert.False(t, tracker.Track(dup))
	assert.Equal(t, 2, tracker.Len())

	got, ok := tracker.Get(all[0].Key())
	require.True(t, ok)
	assert.Equal(t, all[0].ID, got.ID)
}

func TestTrackerUntrack(t *testing.T) {
	tracker, all := trackedPicks(t)
	spread, total := all[0], all[1]

	assert.False(t, tracker.Untrack(spread.Key(), "someone-else"))
	assert.Equal(t, 2, tracker.Len())

	require.True(t, tracker.Untrack(spread.Key(), spread.ID))
	assert.Equal(t, 1, tracker.Len())
	_, ok := tracker.Get(spread.Key())
	assert.False(t, ok)
	assert.False(t, tracker.Untrack(spread.Key(), spread.ID))

	left := tracker.ForGame(spread.GameID)
	require.Len(t, left, 1)
	assert.Equal(t, total.ID, left[0].ID)

	// the market is open again
	fresh := spread.Clone()
	fresh.ID = "retry"
	assert.True(t, tracker.Track(fresh))

	require.True(t, tracker.Untrack(total.Key(), total.ID))
	require.True(t, tracker.Untrack(fresh.Key(), fresh.ID))
	assert.Empty(t, tracker.ForGame(spread.GameID))
}

func TestTrackerReturnsCopies(t *testing.T) {
	tracker, all := trackedPicks(t)

	got, _ := tracker.Get(all[0].Key())
	got.Confidence = 1
	got.TierHistory = append(got.TierHistory, models.TierChange{Reason: "tampered"})

	again, _ := tracker.Get(all[0].Key())
	assert.Equal(t, all[0].Confidence, again.Confidence)
	assert.Empty(t, again.TierHistory)
}

func TestTrackerReevaluate(t *testing.T) {
	tracker, all := trackedPicks(t)
	total := all[1]

	// 8h later: 9 pts of time decay takes the Under from 90 to 81
	ev, err := tracker.Reevaluate(total.Key(), laterSnapshot(8))
	require.NoError(t, err)
	assert.InDelta(t, 81, ev.Pick.Confidence, 1e-9)
	assert.Equal(t, models.TierTwo, ev.Pick.Tier)
	require.True(t, ev.Result.Changed())
	assert.Equal(t, decay.FactorTime, ev.Result.Change.Reason)

	stored, _ := tracker.Get(total.Key())
	assert.Len(t, stored.TierHistory, 1)

	_, err = tracker.Reevaluate("missing:SPREAD", laterSnapshot(9))
	assert.ErrorIs(t, err, ErrPickNotFound)
}

func TestTrackerReevaluateGame(t *testing.T) {
	tracker, _ := trackedPicks(t)

	evals, err := tracker.ReevaluateGame(laterSnapshot(3))
	require.NoError(t, err)
	assert.Len(t, evals, 2)

	_, err = tracker.ReevaluateGame(laterSnapshot(1))
	assert.ErrorIs(t, err, models.ErrMalformedSnapshot)

	other := laterSnapshot(4)
	other.GameID = "nba-unknown"
	evals, err = tracker.ReevaluateGame(other)
	assert.NoError(t, err)
	assert.Empty(t, evals)
}

func TestTrackerMarkGraded(t *testing.T) {
	tracker, all := trackedPicks(t)
	at := tipoff.Add(3 * time.Hour)

	graded := tracker.MarkGraded(all[0].GameID, at)
	require.Len(t, graded, 2)
	for _, p := range graded {
		assert.True(t, p.Graded)
		require.NotNil(t, p.GradedAt)
		assert.Equal(t, at, *p.GradedAt)
	}

	assert.Empty(t, tracker.MarkGraded(all[0].GameID, at))

	before, _ := tracker.Get(all[0].Key())
	evals, err := tracker.ReevaluateGame(laterSnapshot(6))
	assert.NoError(t, err)
	assert.Empty(t, evals)

	_, err = tracker.Reevaluate(all[0].Key(), laterSnapshot(6))
	assert.ErrorIs(t, err, models.ErrInvalidState)

	after, _ := tracker.Get(all[0].Key())
	assert.Equal(t, before, after)

	assert.Empty(t, tracker.List(true))
	assert.Len(t, tracker.List(false), 2)
}

func TestTrackerSerializesEvaluationsOfOnePick(t *testing.T) {
	tracker, all := trackedPicks(t)
	key := all[1].Key()
	s := laterSnapshot(8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.Reevaluate(key, s)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := tracker.Get(key)
	assert.InDelta(t, 81, got.Confidence, 1e-9)
	assert.Len(t, got.TierHistory, 1)
	assert.Equal(t, s.Timestamp, got.LastEvaluatedAt)
}

func TestTrackerPrune(t *testing.T) {
	tracker, all := trackedPicks(t)

	tracker.MarkGraded(all[0].GameID, tipoff.Add(3*time.Hour))

	assert.Equal(t, 0, tracker.Prune(tipoff.Add(time.Hour)))
	assert.Equal(t, 2, tracker.Prune(tipoff.Add(24*time.Hour)))
	assert.Equal(t, 0, tracker.Len())
	assert.Empty(t, tracker.ForGame(all[0].GameID))
}
