package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// GameFinalPrefix marks streams carrying game completion events
const GameFinalPrefix = "games.final."

// GameFinal is published by the settlement side when a game is over
type GameFinal struct {
	GameID     string    `json:"game_id"`
	SportKey   string    `json:"sport_key,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Message is one decoded stream entry. Exactly one of Snapshot or Final is set.
type Message struct {
	ID        string
	StreamKey string
	Snapshot  *models.MarketSnapshot
	Final     *GameFinal
}

// GameID returns the game the message is about
func (m Message) GameID() string {
	if m.Snapshot != nil {
		return m.Snapshot.GameID
	}
	if m.Final != nil {
		return m.Final.GameID
	}
	return ""
}

// StreamConsumer reads market snapshots and game completions from Redis Streams
type StreamConsumer struct {
	client     *redis.Client
	consumerID string
	groupName  string
	batchSize  int64
	block      time.Duration
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(client *redis.Client, consumerID, groupName string) *StreamConsumer {
	return &StreamConsumer{
		client:     client,
		consumerID: consumerID,
		groupName:  groupName,
		batchSize:  10,
		block:      time.Second,
	}
}

// EnsureGroups creates the consumer group on every stream, creating streams as needed
func (c *StreamConsumer) EnsureGroups(ctx context.Context, streamKeys []string) error {
	for _, key := range streamKeys {
		err := c.client.XGroupCreateMkStream(ctx, key, c.groupName, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group on %s: %w", key, err)
		}
	}
	return nil
}

// Consume reads all streams until ctx is done. Decoding failures are reported
// on the error channel with the offending entry's ID so it can still be acked.
func (c *StreamConsumer) Consume(ctx context.Context, streamKeys []string) (<-chan Message, <-chan error) {
	messageCh := make(chan Message, 100)
	errorCh := make(chan error, 10)

	if err := c.EnsureGroups(ctx, streamKeys); err != nil {
		errorCh <- err
		close(messageCh)
		close(errorCh)
		return messageCh, errorCh
	}

	args := make([]string, 0, len(streamKeys)*2)
	args = append(args, streamKeys...)
	for range streamKeys {
		args = append(args, ">")
	}

	go func() {
		defer close(messageCh)
		defer close(errorCh)

		for {
			if ctx.Err() != nil {
				return
			}

			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.groupName,
				Consumer: c.consumerID,
				Streams:  args,
				Count:    c.batchSize,
				Block:    c.block,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				c.report(ctx, errorCh, fmt.Errorf("error reading from streams: %w", err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			for _, stream := range streams {
				for _, entry := range stream.Messages {
					msg, err := ParseMessage(stream.Stream, entry)
					if err != nil {
						c.report(ctx, errorCh, &DecodeError{StreamKey: stream.Stream, ID: entry.ID, Err: err})
						continue
					}

					select {
					case messageCh <- msg:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return messageCh, errorCh
}

func (c *StreamConsumer) report(ctx context.Context, errorCh chan<- error, err error) {
	select {
	case errorCh <- err:
	case <-ctx.Done():
	}
}

// DecodeError is a stream entry that could not be decoded
type DecodeError struct {
	StreamKey string
	ID        string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error parsing message %s on %s: %v", e.ID, e.StreamKey, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseMessage decodes the JSON "data" field of a stream entry. The stream
// name decides whether it is a snapshot or a game completion.
func ParseMessage(streamKey string, xmsg redis.XMessage) (Message, error) {
	payload, ok := xmsg.Values["data"].(string)
	if !ok {
		return Message{}, fmt.Errorf("missing 'data' field in message")
	}

	msg := Message{ID: xmsg.ID, StreamKey: streamKey}

	if strings.HasPrefix(streamKey, GameFinalPrefix) {
		var final GameFinal
		if err := json.Unmarshal([]byte(payload), &final); err != nil {
			return Message{}, fmt.Errorf("failed to parse game final JSON: %w", err)
		}
		if final.GameID == "" {
			return Message{}, fmt.Errorf("game final without game_id")
		}
		msg.Final = &final
		return msg, nil
	}

	var snapshot models.MarketSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return Message{}, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	msg.Snapshot = &snapshot
	return msg, nil
}

// AckMessage acknowledges a message as processed
func (c *StreamConsumer) AckMessage(ctx context.Context, streamKey, messageID string) error {
	return c.client.XAck(ctx, streamKey, c.groupName, messageID).Err()
}
