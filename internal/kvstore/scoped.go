package kvstore

import "context"

// scoped prefixes every key with a fixed namespace so several logical
// storage scopes (one per visitor) can share a backend.
type scoped struct {
	inner  Store
	prefix string
}

// Scoped returns a Store whose keys live under "<scope>/" inside inner.
// An empty scope returns inner unchanged.
func Scoped(inner Store, scope string) Store {
	if scope == "" {
		return inner
	}
	return &scoped{inner: inner, prefix: scope + "/"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.inner.Remove(ctx, s.prefix+key)
}
