package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, StrictTiers, cfg.Engine.Tiers)
	assert.Equal(t, []string{"markets.snapshots.basketball_nba"}, cfg.Stream.SnapshotStreams)
	assert.Equal(t, []string{"games.final.basketball_nba"}, cfg.Stream.GameFinalStreams)
	assert.Equal(t, "picks.generated", cfg.Stream.PicksStream)
	assert.Equal(t, 4, cfg.Stream.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPORTS", "basketball_nba, icehockey_nhl")
	t.Setenv("TIER_PROFILE", "relaxed")
	t.Setenv("LEAN_THRESHOLD", "62")
	t.Setenv("CONFIRMATION_ORDER_BY_CONFIDENCE", "false")
	t.Setenv("ENGINE_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"markets.snapshots.basketball_nba", "markets.snapshots.icehockey_nhl"}, cfg.Stream.SnapshotStreams)
	assert.Equal(t, TierThresholds{Tier1: 80, Tier2: 70, Lean: 62}, cfg.Engine.Tiers)
	assert.False(t, cfg.Engine.Confidence.OrderByConfidence)
	assert.Equal(t, 8, cfg.Stream.Workers)
}

func TestLoadRejectsBadTiers(t *testing.T) {
	t.Setenv("TIER2_THRESHOLD", "90")

	_, err := Load()
	assert.ErrorContains(t, err, "strictly decreasing")
}

func TestLoadEngineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tiers:
  tier1: 88
  tier2: 76
  lean: 61
spread_rlm:
  min_public_pct: 58
line_freeze:
  hold:
    cap: 70
`), 0o600))

	cfg, err := LoadEngineFile(path, DefaultEngineConfig())
	require.NoError(t, err)

	assert.Equal(t, TierThresholds{Tier1: 88, Tier2: 76, Lean: 61}, cfg.Tiers)
	assert.Equal(t, 58.0, cfg.SpreadRLM.MinPublicPct)
	assert.Equal(t, FreezeScore{Base: 50, PctSlope: 1.5, HourRate: 2, Cap: 70}, cfg.LineFreeze.Hold)
	// untouched keys keep their defaults
	assert.Equal(t, 1.5, cfg.SpreadRLM.MinMove)
	assert.Equal(t, 15.0, cfg.Decay.InjuryPenalty)
}

func TestLoadEngineFileErrors(t *testing.T) {
	_, err := LoadEngineFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultEngineConfig())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers: [1, 2"), 0o600))
	_, err = LoadEngineFile(path, DefaultEngineConfig())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultEngineConfig().Validate())

	cfg := DefaultEngineConfig()
	cfg.Confidence.Ceiling = 120
	cfg.ATS.HotRate = 0.4
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ceiling")
	assert.Contains(t, err.Error(), "hot_rate")
}
