package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

var _ order.Store = (*Store)(nil)

// Store runs the checkout unit of work: ledger upsert and order insert in one
// transaction, so a failed order insert rolls the ledger update back and
// partial writes cannot happen.
type Store struct {
	pool      *pgxpool.Pool
	customers *CustomerRepository
	orders    *OrderRepository
}

// NewStore creates the checkout store over the shared pool.
func NewStore(pool *pgxpool.Pool, customers *CustomerRepository, orders *OrderRepository) *Store {
	return &Store{pool: pool, customers: customers, orders: orders}
}

// PlaceOrder upserts the customer ledger entry, then inserts the order
// referencing the resulting customer id. Both commit together or not at all.
func (s *Store) PlaceOrder(ctx context.Context, u customer.OrderUpsert, o *order.Order) (*order.WithCustomer, error) {
	var placed *order.WithCustomer

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := s.customers.withTx(tx).UpsertOnOrder(ctx, u)
		if err != nil {
			return err
		}

		o.CustomerID = c.ID
		if err := s.orders.withTx(tx).Create(ctx, o); err != nil {
			return err
		}

		placed = &order.WithCustomer{
			Order: *o,
			Customer: order.CustomerSummary{
				Name:       c.Name,
				Phone:      c.Phone,
				VisitCount: c.VisitCount,
				TotalSpend: c.TotalSpend,
			},
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checkout transaction: %w", err)
	}
	return placed, nil
}
