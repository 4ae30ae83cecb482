package notify

import (
	"context"
	"log"
	"time"
)

const EventCartChanged = "LocalCartChanged"

// CartChanged is what KafkaTap publishes. It identifies the scope only;
// consumers re-read the cart.
type CartChanged struct {
	EventType string    `json:"event_type"`
	Scope     string    `json:"scope"`
	ChangedAt time.Time `json:"changed_at"`
}

// Publisher is satisfied by kafka.Producer
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// KafkaTap forwards notifications to a topic keyed by scope. Publish
// failures are logged and dropped.
func KafkaTap(p Publisher) Tap {
	return func(ctx context.Context, scope string) {
		event := CartChanged{
			EventType: EventCartChanged,
			Scope:     scope,
			ChangedAt: time.Now().UTC(),
		}
		if err := p.Publish(ctx, scope, event); err != nil {
			log.Printf("[Notify] Failed to publish cart change for %s: %v", scope, err)
		}
	}
}
