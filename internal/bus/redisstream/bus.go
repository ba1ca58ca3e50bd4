package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hongjun500/chat-relay/internal/chat"
)

// Bus appends chat events to a Redis stream and reads them back through a consumer group.
type Bus struct {
	cli    *redis.Client
	stream string
	group  string
}

// Event is the stream payload, stored JSON encoded under the "data" field.
type Event struct {
	Type string    `json:"type"`
	When time.Time `json:"when"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
	Text string    `json:"text,omitempty"`
}

// EventOf converts a routed message.
func EventOf(m *chat.Message) *Event {
	return &Event{Type: string(m.Kind), When: m.When, From: m.Sender, To: m.Recipient, Text: m.Body}
}

func New(addr string, db int, stream, group string) *Bus {
	cli := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return &Bus{cli: cli, stream: stream, group: group}
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.cli.Ping(ctx).Err()
}

func (b *Bus) EnsureGroup(ctx context.Context) error {
	err := b.cli.XGroupCreateMkStream(ctx, b.stream, b.group, "$").Err()
	// BUSYGROUP: group already there
	if err != nil && !redis.HasErrorPrefix(err, "BUSYGROUP") {
		return err
	}
	return nil
}

func (b *Bus) Publish(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.cli.XAdd(ctx, &redis.XAddArgs{Stream: b.stream, Values: map[string]any{"data": payload}}).Err()
}

func (b *Bus) Close() error {
	return b.cli.Close()
}

type Handler func(ctx context.Context, e *Event) error

// Consume blocks and delivers events to handler until ctx is done.
func (b *Bus) Consume(ctx context.Context, consumer string, handler Handler) error {
	for {
		res, err := b.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// transient, retry after a short pause
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, str := range res {
			for _, xmsg := range str.Messages {
				raw, _ := xmsg.Values["data"].(string)
				var e Event
				if err := json.Unmarshal([]byte(raw), &e); err != nil {
					_ = b.cli.XAck(ctx, b.stream, b.group, xmsg.ID).Err()
					continue
				}
				if err := handler(ctx, &e); err != nil {
					return fmt.Errorf("handle %s: %w", xmsg.ID, err)
				}
				_ = b.cli.XAck(ctx, b.stream, b.group, xmsg.ID).Err()
			}
		}
	}
}
