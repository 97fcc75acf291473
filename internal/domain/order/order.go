package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is an immutable snapshot of a menu item at order time. Later menu
// price or name changes never alter historical orders.
type LineItem struct {
	ItemID   string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Type identifies how an order is fulfilled.
type Type string

const (
	TypeDineIn   Type = "dine-in"
	TypeTakeout  Type = "takeout"
	TypeDelivery Type = "delivery"
)

// Fulfillment is a closed set of order fulfillment variants. Each variant
// carries exactly the detail it requires, so a dine-in order cannot exist
// without a table and a delivery order cannot exist without an address.
type Fulfillment interface {
	OrderType() Type
}

// DineIn is served at a table inside the cafe.
type DineIn struct {
	Table string
}

// Takeout is picked up at the counter.
type Takeout struct{}

// Delivery is delivered to the given address.
type Delivery struct {
	Address string
}

func (DineIn) OrderType() Type   { return TypeDineIn }
func (Takeout) OrderType() Type  { return TypeTakeout }
func (Delivery) OrderType() Type { return TypeDelivery }

// Order is a placed customer order. Only Status changes after creation.
type Order struct {
	ID          string
	CustomerID  string
	Items       []LineItem
	Total       decimal.Decimal
	Status      Status
	Fulfillment Fulfillment
	CreatedAt   time.Time
}

// CustomerSummary is the joined customer data carried alongside an order so
// the dashboard can render without an extra round trip.
type CustomerSummary struct {
	Name       string
	Phone      string
	VisitCount int
	TotalSpend decimal.Decimal
}

// WithCustomer is an order together with its owner's summary.
type WithCustomer struct {
	Order
	Customer CustomerSummary
}

// Repository defines persistence operations for orders. Create always inserts
// in StatusPending; Transition enforces the state machine under a row lock.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*WithCustomer, error)
	// Transition moves the order to next. It reports changed=false when next
	// equals the current status (idempotent no-op) and returns a
	// *ConflictError for any transition outside the allowed set.
	Transition(ctx context.Context, id string, next Status) (o *WithCustomer, changed bool, err error)
	ListByStatus(ctx context.Context, status Status) ([]WithCustomer, error)
	ListByCustomer(ctx context.Context, customerID string) ([]WithCustomer, error)
	ListForDay(ctx context.Context, day time.Time) ([]WithCustomer, error)
}
