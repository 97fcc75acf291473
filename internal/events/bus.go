// Package events fans out order lifecycle events to subscribed dashboard
// sessions. Delivery is best-effort to currently connected subscribers; late
// subscribers reconcile with a full fetch and treat the stream as hints.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

// Type discriminates event payloads on the wire.
type Type string

const (
	TypeOrderCreated Type = "order.created"
	TypeOrderUpdated Type = "order.updated"
)

// Event carries the full order record so subscribers can render without an
// extra round trip.
type Event struct {
	Type  Type
	Order *order.WithCustomer
	At    time.Time
}

// Sink mirrors published events to an external transport (e.g. a broker).
// Sink failures never affect publication to in-process subscribers.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// subscriberBuffer bounds each subscriber's pending events. A subscriber that
// falls this far behind is evicted instead of silently losing events; it is
// expected to reconnect and reconcile.
const subscriberBuffer = 64

// Subscriber is one dashboard session's event stream. The channel is closed
// on Unsubscribe or eviction.
type Subscriber struct {
	ch chan Event
}

// C returns the subscriber's event channel.
func (s *Subscriber) C() <-chan Event { return s.ch }

// Bus is an in-process broadcast registry. Publish fans out under the lock in
// call order, so events for the same order arrive in commit order.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
	sink   Sink
	lg     *zap.Logger
}

// NewBus creates a Bus. sink may be nil.
func NewBus(sink Sink, lg *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[*Subscriber]struct{}),
		sink: sink,
		lg:   lg,
	}
}

// Subscribe registers a new subscriber. Events published before this call are
// not replayed.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Publish delivers e to every connected subscriber and mirrors it to the
// sink. A subscriber with a full buffer is evicted rather than skipped.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.Lock()
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			delete(b.subs, s)
			close(s.ch)
			b.lg.Warn("evicting slow event subscriber",
				zap.String("event", string(e.Type)),
			)
		}
	}
	b.mu.Unlock()

	if b.sink != nil {
		if err := b.sink.Publish(ctx, e); err != nil {
			b.lg.Error("event sink publish failed",
				zap.String("event", string(e.Type)),
				zap.Error(err),
			)
		}
	}
}

// OrderCreated implements order.EventPublisher.
func (b *Bus) OrderCreated(ctx context.Context, o *order.WithCustomer) {
	b.Publish(ctx, Event{Type: TypeOrderCreated, Order: o, At: time.Now().UTC()})
}

// OrderUpdated implements order.EventPublisher.
func (b *Bus) OrderUpdated(ctx context.Context, o *order.WithCustomer) {
	b.Publish(ctx, Event{Type: TypeOrderUpdated, Order: o, At: time.Now().UTC()})
}

// Close evicts all subscribers and rejects future subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}
