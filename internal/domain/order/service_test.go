package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/availability"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
)

// --- Mock implementations ---

type mockGate struct {
	status availability.Status
}

func (m *mockGate) Current(context.Context) availability.Status { return m.status }

type mockStore struct {
	lastUpsert customer.OrderUpsert
	lastOrder  *Order
	err        error
}

func (m *mockStore) PlaceOrder(_ context.Context, u customer.OrderUpsert, o *Order) (*WithCustomer, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastUpsert = u
	m.lastOrder = o
	o.CustomerID = "c1"
	return &WithCustomer{
		Order: *o,
		Customer: CustomerSummary{
			Name:       u.Name,
			Phone:      u.Phone,
			VisitCount: 1,
			TotalSpend: u.Amount,
		},
	}, nil
}

type mockRepo struct {
	Repository

	order   *WithCustomer
	changed bool
	err     error
}

func (m *mockRepo) Transition(_ context.Context, _ string, _ Status) (*WithCustomer, bool, error) {
	return m.order, m.changed, m.err
}

type mockBus struct {
	created []*WithCustomer
	updated []*WithCustomer
}

func (m *mockBus) OrderCreated(_ context.Context, o *WithCustomer) { m.created = append(m.created, o) }
func (m *mockBus) OrderUpdated(_ context.Context, o *WithCustomer) { m.updated = append(m.updated, o) }

type mockNotifier struct {
	dispatched []*WithCustomer
}

func (m *mockNotifier) Dispatch(o *WithCustomer) { m.dispatched = append(m.dispatched, o) }

// --- Helpers ---

type fixture struct {
	gate     *mockGate
	store    *mockStore
	repo     *mockRepo
	bus      *mockBus
	notifier *mockNotifier
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		gate:     &mockGate{status: availability.Status{IsOpen: true, Message: "Open until 22:00"}},
		store:    &mockStore{},
		repo:     &mockRepo{},
		bus:      &mockBus{},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(f.gate, f.store, f.repo, f.bus, f.notifier, zap.NewNop())
	return f
}

// --- Tests ---

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture()

	placed, err := f.svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, StatusPending, placed.Status)
	assert.True(t, d("500").Equal(placed.Total))
	assert.Equal(t, "c1", placed.CustomerID)

	require.Len(t, f.bus.created, 1, "create event after commit")
	require.Len(t, f.notifier.dispatched, 1)
	assert.True(t, d("500").Equal(f.store.lastUpsert.Amount))

	// The credential factory must yield a usable hash, but only the store
	// decides whether to invoke it (first-time phones only).
	require.NotNil(t, f.store.lastUpsert.NewCredential)
	hash, err := f.store.lastUpsert.NewCredential()
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestPlaceOrder_StoreClosed(t *testing.T) {
	f := newFixture()
	f.gate.status = availability.Status{IsOpen: false, Message: "Opens at 10:00"}

	_, err := f.svc.PlaceOrder(context.Background(), validRequest())

	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, "Opens at 10:00", availErr.Reason)
	assert.Nil(t, f.store.lastOrder, "no writes when the store is closed")
	assert.Empty(t, f.bus.created)
}

func TestPlaceOrder_ValidationFailure(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Phone = "123"

	_, err := f.svc.PlaceOrder(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "phone")
	assert.Nil(t, f.store.lastOrder, "validation failures never touch storage")
	assert.Empty(t, f.bus.created)
	assert.Empty(t, f.notifier.dispatched)
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("connection reset")

	_, err := f.svc.PlaceOrder(context.Background(), validRequest())

	require.Error(t, err)
	assert.Empty(t, f.bus.created, "no event when the write did not commit")
	assert.Empty(t, f.notifier.dispatched)
}

func TestPlaceOrder_LoyaltyDiscountApplied(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.LoyaltyEligible = true
	req.DeclaredTotal = d("425")

	placed, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, d("425").Equal(placed.Total))
}

func TestUpdateStatus_PublishesOnChange(t *testing.T) {
	f := newFixture()
	f.repo.order = &WithCustomer{Order: Order{ID: "o1", Status: StatusCooking}}
	f.repo.changed = true

	o, err := f.svc.UpdateStatus(context.Background(), "o1", "cooking")
	require.NoError(t, err)
	assert.Equal(t, StatusCooking, o.Status)
	assert.Len(t, f.bus.updated, 1)
}

func TestUpdateStatus_IdempotentRepeatEmitsNothing(t *testing.T) {
	f := newFixture()
	f.repo.order = &WithCustomer{Order: Order{ID: "o1", Status: StatusCooking}}
	f.repo.changed = false

	_, err := f.svc.UpdateStatus(context.Background(), "o1", "cooking")
	require.NoError(t, err)
	assert.Empty(t, f.bus.updated, "a no-op repeat is success without an event")
}

func TestUpdateStatus_Conflict(t *testing.T) {
	f := newFixture()
	f.repo.err = &ConflictError{From: StatusCompleted, To: StatusPending}

	_, err := f.svc.UpdateStatus(context.Background(), "o1", "pending")

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Empty(t, f.bus.updated)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "o1", "ready")
	require.Error(t, err)
	assert.Empty(t, f.bus.updated)
}
