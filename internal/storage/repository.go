package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// Gateway is a key-value blob store. Implementations must make Save atomic
// per key: a reader sees either the previous value or the new one.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by gateways that can drop a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Stamped is implemented by gateways that track write times per key.
type Stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
