// Package customer holds the customer ledger: one record per phone number
// with running spend and visit counters.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no customer matches the lookup key.
var ErrNotFound = errors.New("customer not found")

// Customer is a ledger record keyed by phone number.
type Customer struct {
	ID           string
	Phone        string
	Name         string
	Address      string
	PasswordHash string
	TotalSpend   decimal.Decimal
	VisitCount   int
	LastOrderAt  *time.Time
	CreatedAt    time.Time
}

// OrderUpsert carries the per-order ledger update. Name and address are
// last-write-wins; Amount is added to the running spend.
type OrderUpsert struct {
	Phone   string
	Name    string
	Address string
	Amount  decimal.Decimal
	// NewCredential issues the password hash seeding the credential when
	// this upsert creates the customer. The repository calls it only for
	// first-time phones; existing credentials are never touched, so the
	// hashing cost is not paid on repeat checkouts.
	NewCredential func() (hash string, err error)
}

// Repository defines ledger persistence. UpsertOnOrder must be atomic: two
// concurrent orders from the same phone both land in the counters.
type Repository interface {
	UpsertOnOrder(ctx context.Context, u OrderUpsert) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	TopBySpend(ctx context.Context, limit int) ([]Customer, error)
}
