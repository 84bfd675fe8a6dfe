package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tush00nka/filehub/internal/model"
)

// fileEvent is the wire form; the storage key is not part of File's JSON.
type fileEvent struct {
	*model.File
	StorageKey string `json:"storageKey"`
}

// RedisBroker publishes events on per-user Redis channels so that every
// instance behind a load balancer sees them.
type RedisBroker struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisBroker(client *redis.Client, log *slog.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, file *model.File) error {
	data, err := encodeEvent(file)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, Channel(file.UserID), data).Err(); err != nil {
		return fmt.Errorf("publish upload event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (<-chan *model.File, error) {
	ps := b.client.Subscribe(ctx, Channel(userID))

	// Ждём подтверждения подписки
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(userID), err)
	}

	out := make(chan *model.File, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				file, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					b.log.Error("bad upload event", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case out <- file:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func encodeEvent(file *model.File) ([]byte, error) {
	data, err := json.Marshal(fileEvent{File: file, StorageKey: file.Key})
	if err != nil {
		return nil, fmt.Errorf("encode upload event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (*model.File, error) {
	ev := fileEvent{File: &model.File{}}
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode upload event: %w", err)
	}
	ev.File.Key = ev.StorageKey
	return ev.File, nil
}
