// Package pubsub fans out upload events to subscribers of the owning user.
package pubsub

import (
	"context"
	"errors"

	"tush00nka/filehub/internal/model"
)

var ErrClosed = errors.New("broker closed")

type Broker interface {
	Publish(ctx context.Context, file *model.File) error
	// Subscribe returns a channel of the user's uploads. The channel is
	// closed when ctx is done or the broker is closed.
	Subscribe(ctx context.Context, userID string) (<-chan *model.File, error)
	Close() error
}

func Channel(userID string) string {
	return "files:uploaded:" + userID
}
