package api

import (
	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/example/rachana-boutique/internal/notify"
	"github.com/example/rachana-boutique/internal/session"
)

// Visitors maps a visitor id to its storage scope. Everything a browser
// would keep in local storage lives under "visitor:<id>/" in one backend.
type Visitors struct {
	kv     kvstore.Store
	hub    *notify.Hub
	merges *session.Registry
}

func NewVisitors(kv kvstore.Store, hub *notify.Hub) *Visitors {
	v := &Visitors{kv: kv, hub: hub}
	v.merges = session.NewRegistry(func(visitorID string) *session.Coordinator {
		return session.NewCoordinator(v.scope(visitorID), v.Cart(visitorID))
	})
	return v
}

func (v *Visitors) scope(visitorID string) kvstore.Store {
	return kvstore.Scoped(v.kv, "visitor:"+visitorID)
}

// Cart returns the guest cart of visitorID
func (v *Visitors) Cart(visitorID string) *localcart.Store {
	return localcart.New(v.scope(visitorID), v.hub.Scope(visitorID))
}

// Merge returns the merge coordinator shared by all in-flight requests of
// visitorID. release must be called when the request is done.
func (v *Visitors) Merge(visitorID string) (c *session.Coordinator, release func()) {
	return v.merges.Acquire(visitorID)
}

// HeldMerges is the number of visitors with a coordinator in memory
func (v *Visitors) HeldMerges() int {
	return v.merges.Len()
}
