package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, items, total_amount, status, order_type, table_number, delivery_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	orderColumns = `o.id, o.customer_id, o.items, o.total_amount, o.status, o.order_type,
		o.table_number, o.delivery_address, o.created_at,
		c.name, c.phone, c.visit_count, c.total_spend`

	orderJoin = ` FROM orders o JOIN customers c ON c.id = o.customer_id`

	lockOrderStatusSQL   = `SELECT status FROM orders WHERE id = $1 FOR UPDATE`
	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool, pool: pool}
}

// withTx returns a copy bound to the transaction. The copy cannot open its own
// transaction, so Transition on it returns an error rather than nesting one.
func (r *OrderRepository) withTx(tx pgx.Tx) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create persists a new order. The line item snapshot is serialized to JSON
// for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	var tableNumber, deliveryAddress *string
	switch f := o.Fulfillment.(type) {
	case order.DineIn:
		tableNumber = &f.Table
	case order.Delivery:
		deliveryAddress = &f.Address
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, itemsJSON, o.Total, o.Status,
		o.Fulfillment.OrderType(), tableNumber, deliveryAddress, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// Get returns a single order joined with its customer summary.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.WithCustomer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+orderJoin+` WHERE o.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// Transition moves the order to next under a row lock so a staff double-click
// resolves deterministically: the second call observes the committed status
// and is either an idempotent no-op or a ConflictError.
func (r *OrderRepository) Transition(ctx context.Context, id string, next order.Status) (*order.WithCustomer, bool, error) {
	if r.pool == nil {
		return nil, false, errors.New("transition requires a pool-bound repository")
	}

	var (
		result  *order.WithCustomer
		changed bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, lockOrderStatusSQL, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("locking order %q: %w", id, err)
		}

		cur, err := order.ParseStatus(current)
		if err != nil {
			return fmt.Errorf("order %q has corrupt status: %w", id, err)
		}

		switch {
		case cur == next:
			changed = false
		case cur.CanTransitionTo(next):
			if _, err := tx.Exec(ctx, updateOrderStatusSQL, id, next); err != nil {
				return fmt.Errorf("updating order %q status: %w", id, err)
			}
			changed = true
		default:
			return &order.ConflictError{From: cur, To: next}
		}

		rows, err := tx.Query(ctx, `SELECT `+orderColumns+orderJoin+` WHERE o.id = $1`, id)
		if err != nil {
			return fmt.Errorf("reloading order %q: %w", id, err)
		}
		o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			return fmt.Errorf("reloading order %q: %w", id, err)
		}
		result = &o
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

// ListByStatus returns orders in the given status, newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.WithCustomer, error) {
	return r.list(ctx, `SELECT `+orderColumns+orderJoin+` WHERE o.status = $1 ORDER BY o.created_at DESC`, status)
}

// ListByCustomer returns one customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.WithCustomer, error) {
	return r.list(ctx, `SELECT `+orderColumns+orderJoin+` WHERE o.customer_id = $1 ORDER BY o.created_at DESC`, customerID)
}

// ListForDay returns orders created within the calendar day of day, evaluated
// in day's location.
func (r *OrderRepository) ListForDay(ctx context.Context, day time.Time) ([]order.WithCustomer, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.list(ctx,
		`SELECT `+orderColumns+orderJoin+` WHERE o.created_at >= $1 AND o.created_at < $2 ORDER BY o.created_at DESC`,
		start, end,
	)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.WithCustomer, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.WithCustomer, error) {
	var (
		o               order.WithCustomer
		itemsJSON       []byte
		status          string
		orderType       string
		tableNumber     *string
		deliveryAddress *string
		totalSpend      decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &itemsJSON, &o.Total, &status, &orderType,
		&tableNumber, &deliveryAddress, &o.CreatedAt,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.VisitCount, &totalSpend,
	)
	if err != nil {
		return o, err
	}
	o.Customer.TotalSpend = totalSpend

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}

	st, err := order.ParseStatus(status)
	if err != nil {
		return o, err
	}
	o.Status = st

	o.Fulfillment, err = fulfillmentFromRow(orderType, tableNumber, deliveryAddress)
	return o, err
}

func fulfillmentFromRow(orderType string, tableNumber, deliveryAddress *string) (order.Fulfillment, error) {
	switch order.Type(orderType) {
	case order.TypeDineIn:
		if tableNumber == nil {
			return nil, errors.New("dine-in order without table number")
		}
		return order.DineIn{Table: *tableNumber}, nil
	case order.TypeTakeout:
		return order.Takeout{}, nil
	case order.TypeDelivery:
		if deliveryAddress == nil {
			return nil, errors.New("delivery order without address")
		}
		return order.Delivery{Address: *deliveryAddress}, nil
	default:
		return nil, errors.Errorf("unknown order type %q", orderType)
	}
}
