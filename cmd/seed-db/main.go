// Command seed-db loads a small set of demo customers and orders so the
// dashboard has data to show during local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/storage/postgres"
)

type demoOrder struct {
	name        string
	phone       string
	address     string
	fulfillment order.Fulfillment
	status      order.Status
	items       []order.LineItem
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var demoOrders = []demoOrder{
	{
		name:        "Rahim Uddin",
		phone:       "01712345678",
		fulfillment: order.Takeout{},
		status:      order.StatusCompleted,
		items: []order.LineItem{
			{ItemID: "itm-burger", Name: "Beef Burger", Price: price("250"), Quantity: 2},
			{ItemID: "itm-latte", Name: "Cafe Latte", Price: price("320"), Quantity: 1},
		},
	},
	{
		name:        "Salma Khatun",
		phone:       "01898765432",
		address:     "12 Green Road, Dhanmondi",
		fulfillment: order.Delivery{Address: "12 Green Road, Dhanmondi"},
		status:      order.StatusCooking,
		items: []order.LineItem{
			{ItemID: "itm-pasta", Name: "Alfredo Pasta", Price: price("420"), Quantity: 1},
		},
	},
	{
		name:        "Tanvir Ahmed",
		phone:       "01911223344",
		fulfillment: order.DineIn{Table: "7"},
		status:      order.StatusPending,
		items: []order.LineItem{
			{ItemID: "itm-sandwich", Name: "Club Sandwich", Price: price("280"), Quantity: 1},
			{ItemID: "itm-juice", Name: "Mango Juice", Price: price("150"), Quantity: 2},
		},
	},
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	customers := postgres.NewCustomerRepository(pool)
	orders := postgres.NewOrderRepository(pool)
	store := postgres.NewStore(pool, customers, orders)

	for _, d := range demoOrders {
		total := decimal.Zero
		for _, item := range d.items {
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		o := &order.Order{
			ID:          uuid.New().String(),
			Items:       d.items,
			Total:       total,
			Status:      order.StatusPending,
			Fulfillment: d.fulfillment,
			CreatedAt:   time.Now().UTC(),
		}
		placed, err := store.PlaceOrder(ctx, customer.OrderUpsert{
			Phone:   d.phone,
			Name:    d.name,
			Address: d.address,
			Amount:  total,
			NewCredential: func() (string, error) {
				_, hash, err := customer.NewDefaultCredential()
				return hash, err
			},
		}, o)
		if err != nil {
			return errors.Wrapf(err, "seed order for %s", d.phone)
		}

		// Walk the seeded order to its target status.
		for _, next := range pathTo(d.status) {
			if _, _, err := orders.Transition(ctx, placed.ID, next); err != nil {
				return errors.Wrapf(err, "transition seeded order %s", placed.ID)
			}
		}

		slog.Info("seeded order",
			slog.String("id", placed.ID),
			slog.String("customer", d.name),
			slog.String("status", string(d.status)),
			slog.String("total", total.String()),
		)
	}

	return nil
}

// pathTo returns the transitions from pending to the target status.
func pathTo(target order.Status) []order.Status {
	switch target {
	case order.StatusCooking:
		return []order.Status{order.StatusCooking}
	case order.StatusCompleted:
		return []order.Status{order.StatusCooking, order.StatusCompleted}
	case order.StatusCancelled:
		return []order.Status{order.StatusCancelled}
	default:
		return nil
	}
}
