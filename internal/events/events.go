package events

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Event types published by the ordering flow.
const (
	TypeOrderPlaced         = "order.placed"
	TypeOrderStatusChanged  = "order.status_changed"
	TypeInventoryLowStock   = "inventory.low_stock"
	TypeInventoryOutOfStock = "inventory.out_of_stock"
	TypeInventoryReconcile  = "inventory.reconciliation_needed"
)

// Event is a notification about a committed change.
type Event struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New stamps an event with the current time.
func New(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events to an audience. Implementations must not block
// the caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var result *multierror.Error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
