package testdb

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/dbsDevelops/f1-24-setup-recommender/testsupport/tcpostgres"
)

// InitTestDB returns a migrated database with empty tables. TESTDB_URL
// selects an external database instead of a container.
func InitTestDB() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDb()
	} else {
		pool = tcpg.SetupTestDb()
	}
	tcpg.ClearAllTables(pool)
	return pool
}
