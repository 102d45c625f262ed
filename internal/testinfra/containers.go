package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"

	// The root account creates one models database per test.
	MySQLImage        = "mysql:8.0"
	MySQLRootPassword = "root"
	MySQLDatabase     = "models03"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

type MySQLContainer struct {
	*mysql.MySQLContainer
	// DSN is a go-sql-driver DSN for the root user, e.g. root:root@tcp(localhost:32768)/models03
	DSN string
}

func StartSimplePostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

func StartMySQL(ctx context.Context) (*MySQLContainer, error) {
	ctr, err := mysql.Run(ctx,
		MySQLImage,
		mysql.WithDatabase(MySQLDatabase),
		mysql.WithUsername("root"),
		mysql.WithPassword(MySQLRootPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("start mysql: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &MySQLContainer{MySQLContainer: ctr, DSN: dsn}, nil
}
