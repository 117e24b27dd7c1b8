package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/decay"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/detector"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/logger"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/picks"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <snapshot.json>",
		Short: "Run the pick pipeline over snapshot files offline",
		Long: `Evaluate reads a single snapshot or a time-ordered array of snapshots
(use - for stdin). The first snapshot of a game creates its picks; later ones
re-evaluate them. The final pick state is printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluate,
	}

	cmd.Flags().String("tiers", "", "Tier thresholds (strict|relaxed), defaults to configured")
	cmd.Flags().String("config", "", "Engine thresholds YAML file")
	cmd.Flags().StringSlice("detectors", nil, "Only run these detectors (e.g. spread_rlm,ats_trend)")
	return cmd
}

// evaluation is the JSON printed by evaluate
type evaluation struct {
	Picks       []*models.Pick      `json:"picks"`
	TierChanges []models.TierChange `json:"tier_changes"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	engineCfg := cfg.Engine

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if engineCfg, err = config.LoadEngineFile(path, engineCfg); err != nil {
			return err
		}
	}
	if tiers, _ := cmd.Flags().GetString("tiers"); tiers != "" {
		switch strings.ToLower(tiers) {
		case "strict":
			engineCfg.Tiers = config.StrictTiers
		case "relaxed":
			engineCfg.Tiers = config.RelaxedTiers
		default:
			return fmt.Errorf("unknown tier profile %q", tiers)
		}
	}
	if err := engineCfg.Validate(); err != nil {
		return err
	}

	snapshots, err := readSnapshots(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	names, _ := cmd.Flags().GetStringSlice("detectors")

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	out, err := evaluateSnapshots(engineCfg, log, snapshots, names)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func evaluateSnapshots(cfg config.EngineConfig, log zerolog.Logger, snapshots []models.MarketSnapshot, detectors []string) (evaluation, error) {
	generator := picks.NewGenerator(cfg, log)
	if len(detectors) > 0 {
		set, err := detector.Select(detector.NewSet(cfg), detectors)
		if err != nil {
			return evaluation{}, err
		}
		generator = generator.WithDetectors(set...)
	}
	tracker := picks.NewTracker(decay.NewEngine(cfg))

	out := evaluation{TierChanges: []models.TierChange{}}
	for i, snap := range snapshots {
		evals, err := tracker.ReevaluateGame(snap)
		if err != nil {
			return out, fmt.Errorf("snapshot %d: %w", i, err)
		}
		for _, ev := range evals {
			if ev.Result.Changed() {
				out.TierChanges = append(out.TierChanges, *ev.Result.Change)
			}
		}

		generated, err := generator.GeneratePicks(snap)
		if err != nil {
			return out, fmt.Errorf("snapshot %d: %w", i, err)
		}
		for _, p := range generated {
			tracker.Track(p)
		}
	}

	out.Picks = tracker.List(false)
	return out, nil
}

func readSnapshots(stdin io.Reader, path string) ([]models.MarketSnapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []models.MarketSnapshot
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
		}
		return many, nil
	}

	var one models.MarketSnapshot
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	return []models.MarketSnapshot{one}, nil
}
