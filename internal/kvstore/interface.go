package kvstore

import (
	"context"
	"errors"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "rb:"

var ErrEmptyKey = errors.New("key is required")

// Store is a minimal string key-value capability. A missing key is reported
// with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
