package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is shared by every test in the package. It stays nil when no
// database is reachable and the tests skip.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	ctx := context.Background()

	dsn := os.Getenv("ARPG_TEST_DSN")
	if dsn == "" {
		var (
			terminate func()
			err       error
		)
		dsn, terminate, err = startPostgres(ctx)
		if err != nil {
			log.Printf("no test database, db tests will skip: %v", err)
			return m.Run()
		}
		defer terminate()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Printf("connecting to test db: %v", err)
		return 1
	}
	defer pool.Close()

	if err := MigratePool(ctx, pool); err != nil {
		log.Printf("running migrations: %v", err)
		return 1
	}

	testPool = pool
	return m.Run()
}

// startPostgres runs a PostgreSQL 16 container and returns its DSN.
func startPostgres(ctx context.Context) (dsn string, terminate func(), err error) {
	defer func() {
		// testcontainers panics when no docker daemon is available.
		if r := recover(); r != nil {
			err = fmt.Errorf("starting postgres container: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("starting postgres container: %w", err)
	}
	terminate = func() { _ = container.Terminate(ctx) }

	host, err := container.Host(ctx)
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("getting container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("getting container port: %w", err)
	}
	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
	return dsn, terminate, nil
}

// setupTestDB returns the shared pool with combat_log emptied.
func setupTestDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	if testPool == nil {
		tb.Skip("no test database (set ARPG_TEST_DSN or run docker)")
	}
	if _, err := testPool.Exec(context.Background(), "TRUNCATE combat_log"); err != nil {
		tb.Logf("cleanup warning: %v", err)
	}
	return testPool
}
