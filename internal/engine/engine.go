package engine

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/picks"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/retry"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// Source delivers stream messages and takes acknowledgements
type Source interface {
	EnsureGroups(ctx context.Context, streamKeys []string) error
	Consume(ctx context.Context, streamKeys []string) (<-chan consumer.Message, <-chan error)
	AckMessage(ctx context.Context, streamKey, messageID string) error
}

// Deduplicator decides whether a notification was already emitted
type Deduplicator interface {
	ShouldEmitPick(ctx context.Context, pick *models.Pick) (bool, error)
	ShouldEmitTierChange(ctx context.Context, pick *models.Pick, change models.TierChange) (bool, error)
}

// PickLoader reads open picks back from storage on startup
type PickLoader interface {
	LoadOpenPicks(ctx context.Context, sportKeys []string) ([]*models.Pick, error)
}

const (
	shardBuffer   = 32
	pruneInterval = time.Hour
	gradedRetain  = 24 * time.Hour
)

// Engine wires the stream plumbing to the pick core. Messages are sharded by
// game so one game's snapshots are processed in order by a single worker.
type Engine struct {
	generator *picks.Generator
	tracker   *picks.Tracker
	source    Source
	writer    contracts.PickWriter
	publisher contracts.EventPublisher
	dedup     Deduplicator
	scorer    contracts.ExternalScorer
	retry     *retry.Policy
	streams   config.StreamConfig
	logger    zerolog.Logger
}

// NewEngine creates a new processing engine
func NewEngine(
	generator *picks.Generator,
	tracker *picks.Tracker,
	source Source,
	writer contracts.PickWriter,
	publisher contracts.EventPublisher,
	dedup Deduplicator,
	streams config.StreamConfig,
	logger zerolog.Logger,
) *Engine {
	if streams.Workers < 1 {
		streams.Workers = 1
	}
	return &Engine{
		generator: generator,
		tracker:   tracker,
		source:    source,
		writer:    writer,
		publisher: publisher,
		dedup:     dedup,
		retry:     retry.NewPolicy(3, 200*time.Millisecond).StopOn(models.ErrInvalidState),
		streams:   streams,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// WithScorer attaches an external scorer whose signal joins every snapshot's evaluation
func (e *Engine) WithScorer(scorer contracts.ExternalScorer) *Engine {
	e.scorer = scorer
	return e
}

// WithRetry replaces the I/O retry policy. ErrInvalidState is never retried.
func (e *Engine) WithRetry(policy *retry.Policy) *Engine {
	e.retry = policy.StopOn(models.ErrInvalidState)
	return e
}

// Restore tracks the open picks found in storage. Run it before Start so
// redelivered snapshots do not create a second pick for the same market.
func (e *Engine) Restore(ctx context.Context, loader PickLoader, sportKeys []string) (int, error) {
	open, err := loader.LoadOpenPicks(ctx, sportKeys)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, pick := range open {
		if e.tracker.Track(pick) {
			restored++
		}
	}

	e.logger.Info().Int("picks", restored).Msg("restored open picks")
	return restored, nil
}

// Start consumes snapshot and game-final streams until ctx is cancelled
func (e *Engine) Start(ctx context.Context) error {
	keys := append(append([]string{}, e.streams.SnapshotStreams...), e.streams.GameFinalStreams...)
	if err := e.source.EnsureGroups(ctx, keys); err != nil {
		return err
	}

	e.logger.Info().
		Strs("streams", keys).
		Int("workers", e.streams.Workers).
		Msg("starting pick engine")

	messageCh, errorCh := e.source.Consume(ctx, keys)

	shards := make([]chan consumer.Message, e.streams.Workers)
	for i := range shards {
		shards[i] = make(chan consumer.Message, shardBuffer)
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			for msg := range shard {
				// left pending for redelivery after shutdown
				if gctx.Err() != nil {
					continue
				}
				e.process(gctx, msg)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, shard := range shards {
				close(shard)
			}
		}()

		for {
			select {
			case <-gctx.Done():
				return nil

			case err, ok := <-errorCh:
				if !ok {
					errorCh = nil
					continue
				}
				e.handleStreamError(gctx, err)

			case msg, ok := <-messageCh:
				if !ok {
					return nil
				}
				select {
				case shards[e.shardFor(msg.GameID())] <- msg:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				if n := e.tracker.Prune(now.Add(-gradedRetain)); n > 0 {
					e.logger.Debug().Int("picks", n).Msg("pruned graded picks")
				}
			}
		}
	})

	return g.Wait()
}

func (e *Engine) shardFor(gameID string) int {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return int(h.Sum32() % uint32(e.streams.Workers))
}

// process handles one message and acks it. A message interrupted by shutdown
// is not acked.
func (e *Engine) process(ctx context.Context, msg consumer.Message) {
	var err error
	switch {
	case msg.Snapshot != nil:
		err = e.HandleSnapshot(ctx, *msg.Snapshot)
	case msg.Final != nil:
		err = e.HandleGameFinal(ctx, *msg.Final)
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Error().Err(err).
			Str("stream", msg.StreamKey).
			Str("message_id", msg.ID).
			Msg("error processing message")
	}

	if err := e.source.AckMessage(ctx, msg.StreamKey, msg.ID); err != nil {
		e.logger.Error().Err(err).Str("message_id", msg.ID).Msg("error acknowledging message")
	}
}

// handleStreamError acks entries that can never decode so they are not redelivered forever
func (e *Engine) handleStreamError(ctx context.Context, err error) {
	var decodeErr *consumer.DecodeError
	if errors.As(err, &decodeErr) {
		metrics.ObserveError("decode")
		e.logger.Warn().Err(err).Str("stream", decodeErr.StreamKey).Msg("dropping malformed message")
		if ackErr := e.source.AckMessage(ctx, decodeErr.StreamKey, decodeErr.ID); ackErr != nil {
			e.logger.Error().Err(ackErr).Str("message_id", decodeErr.ID).Msg("error acknowledging message")
		}
		return
	}

	metrics.ObserveError("stream")
	e.logger.Warn().Err(err).Msg("stream error")
}

// HandleSnapshot re-evaluates the game's open picks, then generates picks for
// markets that have none yet
func (e *Engine) HandleSnapshot(ctx context.Context, snapshot models.MarketSnapshot) error {
	start := time.Now()
	defer func() {
		metrics.EvaluationSeconds.Observe(time.Since(start).Seconds())
	}()

	if err := snapshot.Validate(); err != nil {
		metrics.ObserveError("validate")
		return err
	}
	metrics.ObserveSnapshot(snapshot.SportKey)

	e.reevaluate(ctx, snapshot)

	var external []models.Signal
	if e.scorer != nil {
		sig, err := e.scorer.Score(ctx, snapshot)
		if err != nil {
			metrics.ObserveError("scorer")
			e.logger.Warn().Err(err).Str("game_id", snapshot.GameID).Msg("external scorer failed")
		} else if sig != nil {
			external = append(external, *sig)
		}
	}

	generated, err := e.generator.GeneratePicks(snapshot, external...)
	if err != nil {
		metrics.ObserveError("generate")
		return err
	}

	for _, pick := range generated {
		if !e.tracker.Track(pick) {
			continue
		}
		metrics.ObservePick(pick)
		metrics.ObserveSignals(pick.Signals)

		e.logger.Info().
			Str("pick_id", pick.ID).
			Str("game_id", pick.GameID).
			Str("market", string(pick.Market)).
			Str("side", string(pick.Side)).
			Float64("confidence", pick.Confidence).
			Str("tier", string(pick.Tier)).
			Msg("pick generated")

		if err := e.retry.Do(ctx, func(ctx context.Context) error {
			return e.writer.WritePick(ctx, pick)
		}); err != nil {
			metrics.ObserveError("write")
			// an unstored pick cannot be updated later; the next snapshot creates it again
			e.tracker.Untrack(pick.Key(), pick.ID)
			e.logger.Error().Err(err).Str("pick_id", pick.ID).Msg("failed to write pick, untracked")
			continue
		}

		if pick.Tier == models.TierPass {
			continue
		}
		if !e.shouldEmit(e.dedup.ShouldEmitPick(ctx, pick)) {
			continue
		}
		if err := e.retry.Do(ctx, func(ctx context.Context) error {
			return e.publisher.PublishPick(ctx, pick)
		}); err != nil {
			metrics.ObserveError("publish")
			e.logger.Error().Err(err).Str("pick_id", pick.ID).Msg("failed to publish pick")
		}
	}

	return nil
}

func (e *Engine) reevaluate(ctx context.Context, snapshot models.MarketSnapshot) {
	evaluations, err := e.tracker.ReevaluateGame(snapshot)
	if err != nil {
		metrics.ObserveError("reevaluate")
		e.logger.Warn().Err(err).Str("game_id", snapshot.GameID).Msg("re-evaluation skipped picks")
	}

	for _, ev := range evaluations {
		var changes []models.TierChange
		if ev.Result.Changed() {
			changes = append(changes, *ev.Result.Change)
		}

		err := e.retry.Do(ctx, func(ctx context.Context) error {
			return e.writer.UpdatePick(ctx, ev.Pick, changes)
		})
		switch {
		case errors.Is(err, models.ErrInvalidState):
			metrics.ObserveError("update")
			e.logger.Warn().Err(err).Str("pick_id", ev.Pick.ID).Msg("pick not open in storage")
		case err != nil:
			metrics.ObserveError("update")
			e.logger.Error().Err(err).Str("pick_id", ev.Pick.ID).Msg("failed to update pick")
		}

		for _, change := range changes {
			metrics.ObserveTierChange(change)

			e.logger.Info().
				Str("pick_id", ev.Pick.ID).
				Str("from", string(change.FromTier)).
				Str("to", string(change.ToTier)).
				Float64("confidence", change.Confidence).
				Str("reason", change.Reason).
				Msg("tier changed")

			if !e.shouldEmit(e.dedup.ShouldEmitTierChange(ctx, ev.Pick, change)) {
				continue
			}
			if err := e.retry.Do(ctx, func(ctx context.Context) error {
				return e.publisher.PublishTierChange(ctx, ev.Pick, change)
			}); err != nil {
				metrics.ObserveError("publish")
				e.logger.Error().Err(err).Str("pick_id", ev.Pick.ID).Msg("failed to publish tier change")
			}
		}
	}
}

// shouldEmit treats a failed dedup check as not yet emitted
func (e *Engine) shouldEmit(ok bool, err error) bool {
	if err != nil {
		metrics.ObserveError("dedup")
		e.logger.Warn().Err(err).Msg("dedup check failed, emitting anyway")
		return true
	}
	return ok
}

// HandleGameFinal grades every pick of a finished game
func (e *Engine) HandleGameFinal(ctx context.Context, final consumer.GameFinal) error {
	at := final.FinishedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	graded := e.tracker.MarkGraded(final.GameID, at)

	var stored int64
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		n, err := e.writer.MarkGraded(ctx, final.GameID)
		stored = n
		return err
	})
	if err != nil {
		metrics.ObserveError("grade")
		return err
	}

	e.logger.Info().
		Str("game_id", final.GameID).
		Int("tracked", len(graded)).
		Int64("stored", stored).
		Msg("game graded")
	return nil
}
