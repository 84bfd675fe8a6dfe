package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Key  string
	Size int64
}

// Provider is the object storage backend behind the files service.
type Provider interface {
	// Upload streams r to key and returns the size reported by the backend.
	Upload(ctx context.Context, r io.Reader, key, contentType string) (*Object, error)
	Stat(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
	EnsureBucket(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
