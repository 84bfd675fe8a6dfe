package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"tush00nka/filehub/internal/model"
)

const subscriberBuffer = 16

type memorySub struct {
	ch chan *model.File
}

// MemoryBroker delivers events inside one process.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
	log    *slog.Logger
}

func NewMemoryBroker(log *slog.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[*memorySub]struct{}),
		log:  log,
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, file *model.File) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subs[file.UserID] {
		select {
		case sub.ch <- file:
		default:
			b.log.Warn("subscriber is slow, dropping event", "user_id", file.UserID, "file_id", file.ID)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, userID string) (<-chan *model.File, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{ch: make(chan *model.File, subscriberBuffer)}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*memorySub]struct{})
	}
	b.subs[userID][sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(userID, sub)
	}()

	return sub.ch, nil
}

func (b *MemoryBroker) remove(userID string, sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, userID)
	}
	close(sub.ch)
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for userID, set := range b.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(b.subs, userID)
	}
	return nil
}

// Subscribers reports live subscriptions for a user.
func (b *MemoryBroker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
