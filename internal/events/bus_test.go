package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

func testOrder(id string, status order.Status) *order.WithCustomer {
	return &order.WithCustomer{
		Order: order.Order{
			ID:          id,
			CustomerID:  "c1",
			Items:       []order.LineItem{{ItemID: "p1", Name: "Burger", Price: decimal.NewFromInt(250), Quantity: 2}},
			Total:       decimal.NewFromInt(500),
			Status:      status,
			Fulfillment: order.DineIn{Table: "T4"},
			CreatedAt:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		},
		Customer: order.CustomerSummary{
			Name:       "Rahim Uddin",
			Phone:      "01712345678",
			VisitCount: 3,
			TotalSpend: decimal.NewFromInt(1500),
		},
	}
}

func TestBus_FanOutToAllSubscribers(t *testing.T) {
	b := NewBus(nil, zap.NewNop())
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.OrderCreated(context.Background(), testOrder("o1", order.StatusPending))

	for _, s := range []*Subscriber{s1, s2} {
		select {
		case e := <-s.C():
			assert.Equal(t, TypeOrderCreated, e.Type)
			assert.Equal(t, "o1", e.Order.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBus_NoReplayForLateSubscribers(t *testing.T) {
	b := NewBus(nil, zap.NewNop())
	defer b.Close()

	b.OrderCreated(context.Background(), testOrder("o1", order.StatusPending))

	late := b.Subscribe()
	select {
	case e := <-late.C():
		t.Fatalf("late subscriber received replayed event %v", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_SameOrderEventsArriveInPublishOrder(t *testing.T) {
	b := NewBus(nil, zap.NewNop())
	defer b.Close()

	s := b.Subscribe()
	ctx := context.Background()
	b.OrderCreated(ctx, testOrder("o1", order.StatusPending))
	b.OrderUpdated(ctx, testOrder("o1", order.StatusCooking))
	b.OrderUpdated(ctx, testOrder("o1", order.StatusCompleted))

	want := []order.Status{order.StatusPending, order.StatusCooking, order.StatusCompleted}
	for _, status := range want {
		e := <-s.C()
		assert.Equal(t, status, e.Order.Status)
	}
}

func TestBus_SlowSubscriberEvictedNotSkipped(t *testing.T) {
	b := NewBus(nil, zap.NewNop())
	defer b.Close()

	slow := b.Subscribe()
	ctx := context.Background()
	for i := 0; i <= subscriberBuffer; i++ {
		b.OrderCreated(ctx, testOrder("o1", order.StatusPending))
	}

	// The channel was closed on eviction: drain the buffered events and
	// observe the close rather than a silent gap.
	n := 0
	for range slow.C() {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(nil, zap.NewNop())
	s := b.Subscribe()
	b.Unsubscribe(s)

	_, open := <-s.C()
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	b.Unsubscribe(s)
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestBus_SinkFailureDoesNotAffectSubscribers(t *testing.T) {
	sink := &failingSink{}
	b := NewBus(sink, zap.NewNop())
	defer b.Close()

	s := b.Subscribe()
	b.OrderCreated(context.Background(), testOrder("o1", order.StatusPending))

	require.Equal(t, 1, sink.calls)
	select {
	case e := <-s.C():
		assert.Equal(t, "o1", e.Order.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber starved by sink failure")
	}
}

func TestEncode(t *testing.T) {
	e := Event{
		Type:  TypeOrderUpdated,
		Order: testOrder("o1", order.StatusCooking),
		At:    time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC),
	}

	var frame struct {
		Type  string `json:"type"`
		At    string `json:"at"`
		Order struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			OrderType   string `json:"order_type"`
			TableNumber string `json:"table_number"`
			TotalAmount json.Number `json:"total_amount"`
			Items       []struct {
				Name     string `json:"name"`
				Quantity int    `json:"quantity"`
			} `json:"items"`
			Customer struct {
				Name       string `json:"name"`
				VisitCount int    `json:"visit_count"`
			} `json:"customer"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(Encode(e), &frame))

	assert.Equal(t, "order.updated", frame.Type)
	assert.Equal(t, "o1", frame.Order.ID)
	assert.Equal(t, "cooking", frame.Order.Status)
	assert.Equal(t, "dine-in", frame.Order.OrderType)
	assert.Equal(t, "T4", frame.Order.TableNumber)
	assert.Equal(t, "500", frame.Order.TotalAmount.String())
	require.Len(t, frame.Order.Items, 1)
	assert.Equal(t, "Burger", frame.Order.Items[0].Name)
	assert.Equal(t, 2, frame.Order.Items[0].Quantity)
	assert.Equal(t, "Rahim Uddin", frame.Order.Customer.Name)
	assert.Equal(t, 3, frame.Order.Customer.VisitCount)
}
