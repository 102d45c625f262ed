package testing

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilcsoft/mokkadump/internal/testinfra"
	"github.com/ilcsoft/mokkadump/internal/testing/fixtures"
)

var (
	pgContainerOnce sync.Once
	pgContainerConn string
	pgContainerErr  error

	mysqlContainerOnce sync.Once
	mysqlContainerDSN  string
	mysqlContainerErr  error
)

func getOrStartPostgres() (string, error) {
	pgContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			pgContainerErr = err
			return
		}
		pgContainerConn = container.ConnString
	})
	return pgContainerConn, pgContainerErr
}

func getOrStartMySQL() (string, error) {
	mysqlContainerOnce.Do(func() {
		container, err := testinfra.StartMySQL(context.Background())
		if err != nil {
			mysqlContainerErr = err
			return
		}
		mysqlContainerDSN = container.DSN
	})
	return mysqlContainerDSN, mysqlContainerErr
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequirePostgres returns a PostgreSQL URI with rights to create databases.
// Priority: MOKKA_TEST_PG_CONN env var > auto-started testcontainer > skip test.
func RequirePostgres(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	if connString := os.Getenv("MOKKA_TEST_PG_CONN"); connString != "" {
		return connString
	}
	connString, err := getOrStartPostgres()
	if err != nil {
		t.Skipf("MOKKA_TEST_PG_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// RequireMySQL returns a go-sql-driver DSN with rights to create databases.
// Priority: MOKKA_TEST_MYSQL_DSN env var > auto-started testcontainer > skip test.
func RequireMySQL(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	if dsn := os.Getenv("MOKKA_TEST_MYSQL_DSN"); dsn != "" {
		return dsn
	}
	dsn, err := getOrStartMySQL()
	if err != nil {
		t.Skipf("MOKKA_TEST_MYSQL_DSN not set and Docker unavailable: %v", err)
	}
	return dsn
}

// CreatePostgresModelsDB creates database dbName on the server of connString,
// loads fixture into it and returns a URI for the new database.
// The database is dropped when the test completes.
func CreatePostgresModelsDB(t *testing.T, connString, dbName string, fixture *fixtures.ModelsFixture) string {
	t.Helper()
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer admin.Close()

	if _, err := admin.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		t.Fatalf("Failed to drop stale database %s: %v", dbName, err)
	}
	if _, err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}
	t.Cleanup(func() { dropPostgresDB(t, connString, dbName) })

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	poolCfg.ConnConfig.Database = dbName
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", dbName, err)
	}
	defer pool.Close()

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := pool.Exec(ctx, query, args...)
		return err
	}
	if err := fixture.Load(ctx, exec, fixtures.Dollar, true); err != nil {
		t.Fatalf("Failed to load fixture into %s: %v", dbName, err)
	}

	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(poolCfg.ConnConfig.User, poolCfg.ConnConfig.Password),
		Host:     net.JoinHostPort(poolCfg.ConnConfig.Host, strconv.Itoa(int(poolCfg.ConnConfig.Port))),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func dropPostgresDB(t *testing.T, connString, dbName string) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName)
	if err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}

// CreateMySQLModelsDB creates database dbName on the server of dsn, loads
// fixture into it and returns a DSN for the new database.
// The database is dropped when the test completes.
func CreateMySQLModelsDB(t *testing.T, dsn, dbName string, fixture *fixtures.ModelsFixture) string {
	t.Helper()
	ctx := context.Background()

	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to parse MySQL DSN: %v", err)
	}

	admin, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		t.Fatalf("Failed to open MySQL: %v", err)
	}
	defer admin.Close()

	if _, err := admin.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", dbName)); err != nil {
		t.Fatalf("Failed to drop stale database %s: %v", dbName, err)
	}
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE `%s`", dbName)); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}
	t.Cleanup(func() {
		cleanup, err := sql.Open("mysql", mc.FormatDSN())
		if err != nil {
			return
		}
		defer cleanup.Close()
		if _, err := cleanup.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", dbName)); err != nil {
			t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
		}
	})

	mc.DBName = dbName
	target := mc.FormatDSN()
	db, err := sql.Open("mysql", target)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", dbName, err)
	}
	defer db.Close()

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	}
	if err := fixture.Load(ctx, exec, fixtures.QuestionMark, true); err != nil {
		t.Fatalf("Failed to load fixture into %s: %v", dbName, err)
	}
	return target
}

// CreateDuckDBSnapshot writes fixture into a new DuckDB file at path.
// The file is closed before returning so it can be opened read-only.
func CreateDuckDBSnapshot(t *testing.T, path string, fixture *fixtures.ModelsFixture) {
	t.Helper()

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("Failed to create snapshot %s: %v", path, err)
	}
	defer db.Close()

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	}
	if err := fixture.Load(context.Background(), exec, fixtures.QuestionMark, true); err != nil {
		t.Fatalf("Failed to load fixture into %s: %v", path, err)
	}
}
