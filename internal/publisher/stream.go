package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// TierChangeEvent is the notification candidate emitted for every tier transition
type TierChangeEvent struct {
	PickID     string        `json:"pick_id"`
	GameID     string        `json:"game_id"`
	SportKey   string        `json:"sport_key,omitempty"`
	HomeTeam   string        `json:"home_team"`
	AwayTeam   string        `json:"away_team"`
	Market     models.Market `json:"market"`
	Side       models.Side   `json:"side"`
	Line       *float64      `json:"line,omitempty"`
	FromTier   models.Tier   `json:"from_tier"`
	ToTier     models.Tier   `json:"to_tier"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	Promoted   bool          `json:"promoted"`
	At         time.Time     `json:"at"`
}

// NewTierChangeEvent builds the event for one transition of pick
func NewTierChangeEvent(pick *models.Pick, change models.TierChange) TierChangeEvent {
	return TierChangeEvent{
		PickID:     pick.ID,
		GameID:     pick.GameID,
		SportKey:   pick.SportKey,
		HomeTeam:   pick.HomeTeam,
		AwayTeam:   pick.AwayTeam,
		Market:     pick.Market,
		Side:       pick.Side,
		Line:       pick.Line,
		FromTier:   change.FromTier,
		ToTier:     change.ToTier,
		Confidence: change.Confidence,
		Reason:     change.Reason,
		Promoted:   change.Promoted(),
		At:         change.At,
	}
}

// StreamPublisher publishes picks and tier changes to Redis Streams
type StreamPublisher struct {
	client            *redis.Client
	picksStream       string
	tierChangesStream string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, picksStream, tierChangesStream string) *StreamPublisher {
	return &StreamPublisher{
		client:            client,
		picksStream:       picksStream,
		tierChangesStream: tierChangesStream,
	}
}

// PublishPick publishes a new pick to the global picks stream and, when the
// pick has a sport, to the sport-specific one
func (p *StreamPublisher) PublishPick(ctx context.Context, pick *models.Pick) error {
	data, err := json.Marshal(pick)
	if err != nil {
		return fmt.Errorf("failed to marshal pick: %w", err)
	}

	for _, stream := range p.streams(p.picksStream, pick.SportKey) {
		if err := p.add(ctx, stream, data); err != nil {
			return err
		}
	}
	return nil
}

// PublishTierChange publishes one tier transition
func (p *StreamPublisher) PublishTierChange(ctx context.Context, pick *models.Pick, change models.TierChange) error {
	data, err := json.Marshal(NewTierChangeEvent(pick, change))
	if err != nil {
		return fmt.Errorf("failed to marshal tier change: %w", err)
	}

	for _, stream := range p.streams(p.tierChangesStream, pick.SportKey) {
		if err := p.add(ctx, stream, data); err != nil {
			return err
		}
	}
	return nil
}

func (p *StreamPublisher) streams(global, sportKey string) []string {
	if sportKey == "" {
		return []string{global}
	}
	return []string{fmt.Sprintf("%s.%s", global, sportKey), global}
}

func (p *StreamPublisher) add(ctx context.Context, stream string, data []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return nil
}
