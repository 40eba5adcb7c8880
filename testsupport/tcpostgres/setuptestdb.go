//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/db/migrate"
	database "github.com/dbsDevelops/f1-24-setup-recommender/pkg/db/postgres"
)

// create a pg connection pool for the test database
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("f1sr-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())
	return setupWithURL(ctx, dbURL)
}

// SetupExternalTestDb uses the database given by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithURL(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupWithURL(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearClassificationTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from classification")
}

func ClearLapTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from lap")
}

func ClearSessionTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from session")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearClassificationTable(pool)
	ClearLapTable(pool)
	ClearSessionTable(pool)
}
