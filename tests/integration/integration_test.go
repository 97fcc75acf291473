//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/storage/postgres"
)

var pool *pgxpool.Pool

// TestMain starts a throwaway PostgreSQL container, runs migrations, and
// tears everything down after the suite.
func TestMain(m *testing.M) {
	ctx := context.Background()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cafe",
				"POSTGRES_PASSWORD": "cafe",
				"POSTGRES_DB":       "cafe",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("container host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("container port: %v", err)
	}

	url := fmt.Sprintf("postgres://cafe:cafe@%s:%s/cafe?sslmode=disable", host, port.Port())
	pool, err = postgres.NewPool(ctx, url)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	code := m.Run()

	pool.Close()
	_ = pg.Terminate(ctx)
	os.Exit(code)
}
