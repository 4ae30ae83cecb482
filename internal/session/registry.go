package session

import "sync"

// Registry hands out one Coordinator per storage scope so concurrent
// requests from the same visitor share merge state. A coordinator is kept
// only while a request holds it; once released by every holder it is
// dropped and the persisted merged flag carries the outcome.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	build   func(scope string) *Coordinator
}

type registryEntry struct {
	coordinator *Coordinator
	refs        int
}

func NewRegistry(build func(scope string) *Coordinator) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		build:   build,
	}
}

// Acquire returns the coordinator of scope, building it on first use. The
// caller must call release when its request is done.
func (r *Registry) Acquire(scope string) (c *Coordinator, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[scope]
	if !ok {
		e = &registryEntry{coordinator: r.build(scope)}
		r.entries[scope] = e
	}
	e.refs++

	var once sync.Once
	return e.coordinator, func() {
		once.Do(func() { r.release(scope, e) })
	}
}

func (r *Registry) release(scope string, e *registryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refs--
	if e.refs <= 0 && r.entries[scope] == e {
		delete(r.entries, scope)
	}
}

// Len is the number of scopes currently held
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
