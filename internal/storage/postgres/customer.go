package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
)

const (
	// A single statement keeps the ledger update atomic: two concurrent
	// orders from the same phone both land in the counters, with no
	// read-then-write window.
	upsertCustomerSQL = `INSERT INTO customers (id, phone, name, address, password_hash, total_spend, visit_count, last_order_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, now())
		ON CONFLICT (phone) DO UPDATE SET
			name          = EXCLUDED.name,
			address       = EXCLUDED.address,
			total_spend   = customers.total_spend + EXCLUDED.total_spend,
			visit_count   = customers.visit_count + 1,
			last_order_at = now()
		RETURNING id, phone, name, address, password_hash, total_spend, visit_count, last_order_at, created_at`

	customerExistsSQL = `SELECT EXISTS (SELECT 1 FROM customers WHERE phone = $1)`

	getCustomerByPhoneSQL = `SELECT id, phone, name, address, password_hash, total_spend, visit_count, last_order_at, created_at
		FROM customers WHERE phone = $1`

	topCustomersSQL = `SELECT id, phone, name, address, password_hash, total_spend, visit_count, last_order_at, created_at
		FROM customers ORDER BY total_spend DESC LIMIT $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	db DBTX
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: pool}
}

// withTx returns a copy bound to the transaction.
func (r *CustomerRepository) withTx(tx pgx.Tx) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

// UpsertOnOrder applies the per-order ledger update and returns the resulting
// customer row. The credential is issued only for phones without a ledger
// entry; the DO UPDATE branch never touches password_hash, so a stale
// existence read at worst issues a hash the conflict discards. Customers are
// never deleted, so the insert path cannot run for an existing phone.
func (r *CustomerRepository) UpsertOnOrder(ctx context.Context, u customer.OrderUpsert) (*customer.Customer, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, customerExistsSQL, u.Phone).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking customer %q: %w", u.Phone, err)
	}

	var hash string
	if !exists && u.NewCredential != nil {
		var err error
		if hash, err = u.NewCredential(); err != nil {
			return nil, fmt.Errorf("issuing credential for %q: %w", u.Phone, err)
		}
	}

	rows, err := r.db.Query(ctx, upsertCustomerSQL,
		uuid.New().String(), u.Phone, u.Name, u.Address, hash, u.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting customer %q: %w", u.Phone, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("upserting customer %q: %w", u.Phone, err)
	}
	return &c, nil
}

// GetByPhone looks up a customer by the exact phone number.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	rows, err := r.db.Query(ctx, getCustomerByPhoneSQL, phone)
	if err != nil {
		return nil, fmt.Errorf("finding customer by phone %q: %w", phone, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("finding customer by phone %q: %w", phone, err)
	}
	return &c, nil
}

// TopBySpend returns the highest-spending customers for the dashboard panel.
func (r *CustomerRepository) TopBySpend(ctx context.Context, limit int) ([]customer.Customer, error) {
	rows, err := r.db.Query(ctx, topCustomersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top customers: %w", err)
	}

	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("listing top customers: %w", err)
	}
	return customers, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Phone, &c.Name, &c.Address, &c.PasswordHash,
		&c.TotalSpend, &c.VisitCount, &c.LastOrderAt, &c.CreatedAt,
	)
	return c, err
}
