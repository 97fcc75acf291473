package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/availability"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
)

// Gate answers whether the storefront currently accepts orders.
type Gate interface {
	Current(ctx context.Context) availability.Status
}

// Store is the atomic checkout unit of work: the ledger upsert and the order
// insert commit together or not at all.
type Store interface {
	PlaceOrder(ctx context.Context, u customer.OrderUpsert, o *Order) (*WithCustomer, error)
}

// EventPublisher receives order events strictly after the corresponding write
// has committed.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *WithCustomer)
	OrderUpdated(ctx context.Context, o *WithCustomer)
}

// Notifier pushes a human-readable order summary to an external channel.
// Dispatch must not block and its failures are unobservable by design.
type Notifier interface {
	Dispatch(o *WithCustomer)
}

// Service runs the order intake and fulfillment pipeline.
type Service struct {
	gate     Gate
	store    Store
	orders   Repository
	bus      EventPublisher
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates the pipeline service with its collaborators.
func NewService(
	gate Gate,
	store Store,
	orders Repository,
	bus EventPublisher,
	notifier Notifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		gate:     gate,
		store:    store,
		orders:   orders,
		bus:      bus,
		notifier: notifier,
		lg:       lg,
	}
}

// PlaceOrder runs a checkout end to end: availability gate, validation,
// atomic ledger-upsert + order-insert, then event publication and a detached
// notification. The event is published only after the write committed.
func (s *Service) PlaceOrder(ctx context.Context, req CheckoutRequest) (*WithCustomer, error) {
	if st := s.gate.Current(ctx); !st.IsOpen {
		return nil, &AvailabilityError{Reason: st.Message}
	}

	validated, fieldErrs := Validate(req)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	o := &Order{
		ID:          uuid.New().String(),
		Items:       validated.Items,
		Total:       validated.Total,
		Status:      StatusPending,
		Fulfillment: validated.Fulfillment,
		CreatedAt:   time.Now().UTC(),
	}
	placed, err := s.store.PlaceOrder(ctx, customer.OrderUpsert{
		Phone:   validated.Phone,
		Name:    validated.Name,
		Address: validated.Address,
		Amount:  validated.Total,
		// Deferred so the hashing cost is only paid when this order
		// creates the customer.
		NewCredential: func() (string, error) {
			_, hash, err := customer.NewDefaultCredential()
			return hash, err
		},
	}, o)
	if err != nil {
		return nil, errors.Wrap(err, "place order")
	}

	s.bus.OrderCreated(ctx, placed)
	s.notifier.Dispatch(placed)

	s.lg.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("customer_id", placed.CustomerID),
		zap.String("order_type", string(placed.Fulfillment.OrderType())),
		zap.String("total", placed.Total.String()),
	)
	return placed, nil
}

// UpdateStatus transitions an order on behalf of staff and broadcasts the
// update when the status actually changed. A repeat of the current status is
// an idempotent success with no event.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*WithCustomer, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, changed, err := s.orders.Transition(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if changed {
		s.bus.OrderUpdated(ctx, o)
		s.lg.Info("order status updated",
			zap.String("order_id", id),
			zap.String("status", string(next)),
		)
	}
	return o, nil
}

// ListByStatus returns orders in the given status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]WithCustomer, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.orders.ListByStatus(ctx, st)
}

// ListByCustomer returns a customer's order history, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]WithCustomer, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListForDay returns the orders created on the given calendar day.
func (s *Service) ListForDay(ctx context.Context, day time.Time) ([]WithCustomer, error) {
	return s.orders.ListForDay(ctx, day)
}
