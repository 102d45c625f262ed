package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilcsoft/mokkadump/internal/retry"
	"github.com/ilcsoft/mokkadump/internal/store"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// GoogleCloudSQLConnector implements mokka.Connector for a Cloud SQL for
// PostgreSQL instance using IAM database authentication. The Cloud SQL Go
// Connector handles tokens and TLS; the dialer is released when the
// returned source is closed.
type GoogleCloudSQLConnector struct {
	config   *mokka.ConnectionConfig
	instance string
	logger   mokka.Logger
	retrier  *retry.Retrier
}

// NewGoogleCloudSQLConnector creates a connector for instance, given as
// project:region:instance.
func NewGoogleCloudSQLConnector(config *mokka.ConnectionConfig, instance string, opts Options) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		logger:   opts.logger(),
		retrier:  opts.retrier(),
	}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (mokka.ParameterSource, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", mokka.ErrConnectionFailed, err)
	}

	// host is only a label; DialFunc routes every connection through the dialer.
	cfg := *c.config
	cfg.Host = "cloudsql"
	cfg.Port = mokka.DefaultPostgresPort
	cfg.Password = ""
	cfg.SSLMode = "disable"

	pool, err := retry.Do(ctx, c.retrier, func(ctx context.Context) (*pgxpool.Pool, error) {
		return openPostgres(ctx, &cfg, c.logger, func(pc *pgxpool.Config) {
			pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.Dial(ctx, c.instance)
			}
		})
	})
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("%w: instance %s: %w", mokka.ErrConnectionFailed, c.instance, err)
	}

	return store.NewPostgresSource(pool, func() { dialer.Close() }), nil
}
