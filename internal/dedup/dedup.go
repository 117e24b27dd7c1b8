package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

const keyPrefix = "pick-engine:dedup"

// Deduplicator suppresses events already emitted for a redelivered snapshot
type Deduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(client *redis.Client, ttlMinutes int) *Deduplicator {
	return &Deduplicator{
		client: client,
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}
}

// ShouldEmitPick reports whether this is the first time a pick is being announced
func (d *Deduplicator) ShouldEmitPick(ctx context.Context, pick *models.Pick) (bool, error) {
	return d.claim(ctx, PickKey(pick))
}

// ShouldEmitTierChange reports whether this transition has not been announced yet
func (d *Deduplicator) ShouldEmitTierChange(ctx context.Context, pick *models.Pick, change models.TierChange) (bool, error) {
	return d.claim(ctx, TierChangeKey(pick, change))
}

// claim sets the key if absent. Only the caller that set it may emit.
func (d *Deduplicator) claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return ok, nil
}

// PickKey is one key per game and market: a game only ever gets one pick per market
func PickKey(pick *models.Pick) string {
	return fmt.Sprintf("%s:pick:%s:%s", keyPrefix, pick.GameID, pick.Market)
}

// TierChangeKey identifies a transition by pick, tiers and the snapshot time that caused it
func TierChangeKey(pick *models.Pick, change models.TierChange) string {
	return fmt.Sprintf("%s:tier:%s:%s:%s:%d", keyPrefix, pick.ID, change.FromTier, change.ToTier, change.At.Unix())
}
