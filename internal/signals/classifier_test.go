package signals

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCategoryTable(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	primaries := map[models.SignalType]bool{
		models.SignalRLMSpread:          true,
		models.SignalRLMTotal:           true,
		models.SignalMLSpreadDivergence: true,
		models.SignalLineFreeze:         true,
	}

	require.Len(t, Types(), 10)
	for _, typ := range Types() {
		cls, err := c.Classify(typ, 0)
		require.NoError(t, err, typ)

		want := models.CategoryConfirmation
		if primaries[typ] {
			want = models.CategoryPrimary
		}
		assert.Equal(t, want, cls.Category, typ)
		assert.Equal(t, want, CategoryOf(typ), typ)
		assert.Greater(t, cls.Weight, 0.0, typ)
	}
}

func TestClassifyWeights(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	assert.Equal(t, 1.0, c.Weight(models.SignalATSExtreme))
	assert.Equal(t, 0.8, c.Weight(models.SignalRestAdvantage))
	for _, typ := range []models.SignalType{
		models.SignalBookDisagreement,
		models.SignalCrossSourceDivergence,
		models.SignalPaceMismatch,
		models.SignalHomeRoadSplit,
	} {
		assert.Equal(t, 0.6, c.Weight(typ), typ)
	}
	assert.Equal(t, 0.0, c.Weight("STEAM_MOVE"))
}

func TestClassifyUnknownType(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	_, err := c.Classify("STEAM_MOVE", 3)
	assert.ErrorIs(t, err, models.ErrUnknownSignalType)
	assert.Equal(t, models.SignalCategory(""), CategoryOf("STEAM_MOVE"))
}

func TestClassifyLevels(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	tests := []struct {
		typ       models.SignalType
		magnitude float64
		want      Level
	}{
		{models.SignalRLMSpread, 1.5, LevelModerate},
		{models.SignalRLMSpread, 2.5, LevelStrong},
		{models.SignalRLMSpread, 4.0, LevelElite},
		{models.SignalRLMTotal, 2.0, LevelModerate},
		{models.SignalRLMTotal, 5.0, LevelElite},
		{models.SignalMLSpreadDivergence, 30, LevelStrong},
		{models.SignalMLSpreadDivergence, 48, LevelElite},
		{models.SignalLineFreeze, 3, LevelModerate},
		{models.SignalATSExtreme, 0.9, LevelModerate},
	}

	for _, tt := range tests {
		cls, err := c.Classify(tt.typ, tt.magnitude)
		require.NoError(t, err)
		assert.Equal(t, tt.want, cls.Level, "%s @ %.1f", tt.typ, tt.magnitude)
	}
}

func TestApplyOverridesCategory(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	sig, _, err := c.Apply(models.Signal{Type: models.SignalPaceMismatch, Category: models.CategoryPrimary})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryConfirmation, sig.Category)
}

func TestDescribeLabelsPrimaries(t *testing.T) {
	c := NewClassifier(config.DefaultEngineConfig())

	cls, err := c.Classify(models.SignalRLMSpread, 4.0)
	require.NoError(t, err)
	assert.Equal(t, "[ELITE] RLM: line moved 4.0", cls.Describe("RLM: line moved 4.0"))

	cls, err = c.Classify(models.SignalATSExtreme, 0.9)
	require.NoError(t, err)
	assert.Equal(t, "ATS extreme", cls.Describe("ATS extreme"))
}
