package contracts

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// SignalDetector is one detection strategy. Implementations are pure: no I/O,
// no shared mutable state, safe to run concurrently and in any order.
type SignalDetector interface {
	// Detect inspects a snapshot and returns zero or more signals.
	// Missing inputs yield no signals, never zero-confidence ones.
	Detect(snapshot models.MarketSnapshot) []models.Signal

	// Name identifies the strategy in logs and metrics
	Name() string
}

// ExternalScorer is an optional collaborator (e.g. a statistical model) that
// may contribute one extra confirmation signal for a snapshot
type ExternalScorer interface {
	Score(ctx context.Context, snapshot models.MarketSnapshot) (*models.Signal, error)
}

// PickWriter persists picks and their audit trail
type PickWriter interface {
	WritePick(ctx context.Context, pick *models.Pick) error
	UpdatePick(ctx context.Context, pick *models.Pick, changes []models.TierChange) error
	MarkGraded(ctx context.Context, gameID string) (int64, error)
}

// EventPublisher emits picks and tier transitions for downstream notification
type EventPublisher interface {
	PublishPick(ctx context.Context, pick *models.Pick) error
	PublishTierChange(ctx context.Context, pick *models.Pick, change models.TierChange) error
}
