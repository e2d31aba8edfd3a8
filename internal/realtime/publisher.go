// Package realtime fans chat messages out over Redis pub/sub so every API
// instance can push them to its connected clients.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"intranet/api/internal/store"
)

const channelPrefix = "chat:"

const EventChatMessage = "chat.message"

type Event struct {
	Type    string            `json:"type"`
	Message store.ChatMessage `json:"message"`
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func Channel(roomID string) string {
	return channelPrefix + roomID
}

func (p *Publisher) PublishChatMessage(ctx context.Context, msg store.ChatMessage) error {
	payload, err := json.Marshal(Event{Type: EventChatMessage, Message: msg})
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(msg.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish chat event: %w", err)
	}
	return nil
}

// Subscribe listens on a room channel. Callers close the returned PubSub.
func (p *Publisher) Subscribe(ctx context.Context, roomID string) *redis.PubSub {
	return p.client.Subscribe(ctx, Channel(roomID))
}

// Decode parses a payload received from a room channel.
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode chat event: %w", err)
	}
	return ev, nil
}
