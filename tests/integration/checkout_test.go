//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/storage/postgres"
)

func newCheckoutStore() (*postgres.Store, *postgres.CustomerRepository, *postgres.OrderRepository) {
	customers := postgres.NewCustomerRepository(pool)
	orders := postgres.NewOrderRepository(pool)
	return postgres.NewStore(pool, customers, orders), customers, orders
}

func staticCredential() (string, error) { return "x", nil }

func burgerOrder(total int64) *order.Order {
	return &order.Order{
		ID: uuid.New().String(),
		Items: []order.LineItem{
			{ItemID: "itm-1", Name: "Beef Burger", Price: decimal.NewFromInt(250), Quantity: 2},
		},
		Total:       decimal.NewFromInt(total),
		Status:      order.StatusPending,
		Fulfillment: order.Takeout{},
		CreatedAt:   time.Now().UTC(),
	}
}

// Concurrent checkouts for one phone must land on a single ledger row with
// an exact visit count and spend total.
func TestConcurrentCheckoutSamePhone(t *testing.T) {
	store, customers, _ := newCheckoutStore()
	phone := fmt.Sprintf("017%08d", time.Now().UnixNano()%1e8)

	const n = 8
	g, ctx := errgroup.WithContext(context.Background())
	for range n {
		g.Go(func() error {
			_, err := store.PlaceOrder(ctx, customer.OrderUpsert{
				Phone:         phone,
				Name:          "Rahim Uddin",
				Amount:        decimal.NewFromInt(500),
				NewCredential: staticCredential,
			}, burgerOrder(500))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent checkout: %v", err)
	}

	c, err := customers.GetByPhone(context.Background(), phone)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if c.VisitCount != n {
		t.Fatalf("expected visit count %d, got %d", n, c.VisitCount)
	}
	if want := decimal.NewFromInt(500 * n); !c.TotalSpend.Equal(want) {
		t.Fatalf("expected total spend %s, got %s", want, c.TotalSpend)
	}
}

func TestOrderLifecycle(t *testing.T) {
	store, _, orders := newCheckoutStore()
	ctx := context.Background()
	phone := fmt.Sprintf("018%08d", time.Now().UnixNano()%1e8)

	placed, err := store.PlaceOrder(ctx, customer.OrderUpsert{
		Phone:         phone,
		Name:          "Salma Khatun",
		Address:       "12 Green Road, Dhanmondi",
		Amount:        decimal.NewFromInt(500),
		NewCredential: staticCredential,
	}, burgerOrder(500))
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if placed.Status != order.StatusPending {
		t.Fatalf("expected pending, got %s", placed.Status)
	}
	if placed.Customer.Phone != phone {
		t.Fatalf("expected joined customer %s, got %s", phone, placed.Customer.Phone)
	}

	// pending -> cooking -> completed.
	o, changed, err := orders.Transition(ctx, placed.ID, order.StatusCooking)
	if err != nil || !changed {
		t.Fatalf("to cooking: changed=%v err=%v", changed, err)
	}
	if o.Status != order.StatusCooking {
		t.Fatalf("expected cooking, got %s", o.Status)
	}

	// Repeating the current status is an idempotent no-op.
	_, changed, err = orders.Transition(ctx, placed.ID, order.StatusCooking)
	if err != nil {
		t.Fatalf("repeat cooking: %v", err)
	}
	if changed {
		t.Fatal("repeat transition reported a change")
	}

	if _, _, err = orders.Transition(ctx, placed.ID, order.StatusCompleted); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	// Terminal orders reject further transitions.
	var conflict *order.ConflictError
	if _, _, err = orders.Transition(ctx, placed.ID, order.StatusCooking); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	// Line items survive the round trip untouched.
	got, err := orders.Get(ctx, placed.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	item := got.Items[0]
	if item.Name != "Beef Burger" || item.Quantity != 2 || !item.Price.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("items mutated in storage: %+v", item)
	}
}

// The credential factory is expensive (bcrypt), so the store must call it
// only when the checkout creates the customer, never on repeat visits.
func TestCredentialIssuedOncePerPhone(t *testing.T) {
	store, _, _ := newCheckoutStore()
	ctx := context.Background()
	phone := fmt.Sprintf("015%08d", time.Now().UnixNano()%1e8)

	var calls atomic.Int32
	upsert := customer.OrderUpsert{
		Phone:  phone,
		Name:   "Nusrat Jahan",
		Amount: decimal.NewFromInt(500),
		NewCredential: func() (string, error) {
			calls.Add(1)
			return "x", nil
		},
	}

	if _, err := store.PlaceOrder(ctx, upsert, burgerOrder(500)); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 credential issuance on first checkout, got %d", got)
	}

	if _, err := store.PlaceOrder(ctx, upsert, burgerOrder(500)); err != nil {
		t.Fatalf("repeat checkout: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("repeat checkout re-issued the credential: %d calls", got)
	}
}

func TestTransitionMissingOrder(t *testing.T) {
	_, _, orders := newCheckoutStore()

	_, _, err := orders.Transition(context.Background(), uuid.New().String(), order.StatusCooking)
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTopBySpend(t *testing.T) {
	store, customers, _ := newCheckoutStore()
	ctx := context.Background()

	phone := fmt.Sprintf("019%08d", time.Now().UnixNano()%1e8)
	for _, amount := range []int64{900, 700} {
		if _, err := store.PlaceOrder(ctx, customer.OrderUpsert{
			Phone:         phone,
			Name:          "Tanvir Ahmed",
			Amount:        decimal.NewFromInt(amount),
			NewCredential: staticCredential,
		}, burgerOrder(amount)); err != nil {
			t.Fatalf("place order: %v", err)
		}
	}

	top, err := customers.TopBySpend(ctx, 100)
	if err != nil {
		t.Fatalf("top by spend: %v", err)
	}
	found := false
	for _, c := range top {
		if c.Phone == phone {
			found = true
			if want := decimal.NewFromInt(1600); !c.TotalSpend.Equal(want) {
				t.Fatalf("expected spend %s, got %s", want, c.TotalSpend)
			}
		}
	}
	if !found {
		t.Fatalf("customer %s missing from top spenders", phone)
	}
}
