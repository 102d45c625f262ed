package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ilcsoft/mokkadump/internal/logging"
	"github.com/ilcsoft/mokkadump/internal/retry"
	"github.com/ilcsoft/mokkadump/internal/store"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// Options tune connection establishment.
type Options struct {
	// MaxRetries is the number of additional attempts after a transient
	// failure. Zero means mokka.DefaultRetryMaxAttempts; negative disables retry.
	MaxRetries int

	// Logger receives retry and token diagnostics. Nil discards them.
	Logger mokka.Logger
}

func (o Options) logger() mokka.Logger {
	if o.Logger == nil {
		return logging.Discard
	}
	return o.Logger
}

func (o Options) retrier() *retry.Retrier {
	logger := o.logger()
	return retry.New(retry.NewTransientErrorClassifier(), retry.FromFlag(o.MaxRetries), func(a retry.Attempt) {
		logger.Verbose("connection attempt %d failed, retrying in %v: %v", a.Number, a.Delay.Round(time.Millisecond), a.Err)
	})
}

// StandardConnector implements mokka.Connector for username/password
// authentication with automatic retry on transient failures.
type StandardConnector struct {
	config  *mokka.ConnectionConfig
	logger  mokka.Logger
	retrier *retry.Retrier
}

// NewStandardConnector creates a new StandardConnector for a mysql or postgres config.
func NewStandardConnector(config *mokka.ConnectionConfig, opts Options) *StandardConnector {
	return &StandardConnector{
		config:  config,
		logger:  opts.logger(),
		retrier: opts.retrier(),
	}
}

// Connect opens the database with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (mokka.ParameterSource, error) {
	src, err := retry.Do(ctx, c.retrier, func(ctx context.Context) (mokka.ParameterSource, error) {
		return dial(ctx, c.config, c.logger)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mokka.ErrConnectionFailed, err)
	}
	return src, nil
}

// dial opens a single connection for cfg using cfg.Password as is.
func dial(ctx context.Context, cfg *mokka.ConnectionConfig, logger mokka.Logger) (mokka.ParameterSource, error) {
	switch cfg.Driver {
	case mokka.DriverPostgres:
		pool, err := openPostgres(ctx, cfg, logger, nil)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresSource(pool, nil), nil
	case mokka.DriverMySQL:
		db, err := openMySQL(ctx, cfg, nil)
		if err != nil {
			return nil, err
		}
		return store.NewSQLSource(db), nil
	}
	return nil, fmt.Errorf("driver %q cannot be dialed: %w", cfg.Driver, mokka.ErrInvalidConfig)
}

// NewConnector is a factory function that creates the appropriate
// mokka.Connector based on the driver and AuthMethod of config.
func NewConnector(config *mokka.ConnectionConfig, opts Options) (mokka.Connector, error) {
	if config.Driver == mokka.DriverDuckDB {
		if config.AuthMethod != mokka.AuthMethodStandard {
			return nil, fmt.Errorf("duckdb does not support %s authentication: %w", config.AuthMethod, mokka.ErrUnsupportedAuthMethod)
		}
		return NewDuckDBConnector(config.Database), nil
	}

	switch config.AuthMethod {
	case mokka.AuthMethodStandard:
		return NewStandardConnector(config, opts), nil
	case mokka.AuthMethodAWSIAM:
		return newAWSConnector(config, opts)
	case mokka.AuthMethodGoogleIAM:
		return newGoogleConnector(config, opts)
	case mokka.AuthMethodAzureEntraID:
		return newAzureConnector(config, opts)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, mokka.ErrUnsupportedAuthMethod)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *mokka.ConnectionConfig, opts Options) (mokka.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w: %w", err, mokka.ErrInvalidConfig)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", opts), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *mokka.ConnectionConfig, opts Options) (mokka.Connector, error) {
	if config.Driver != mokka.DriverPostgres {
		return nil, fmt.Errorf("Google Cloud SQL IAM is only supported for postgres: %w", mokka.ErrUnsupportedAuthMethod)
	}
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", mokka.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", mokka.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, opts), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *mokka.ConnectionConfig, opts Options) (mokka.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w: %w", err, mokka.ErrInvalidConfig)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w: %w", err, mokka.ErrInvalidConfig)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", opts), nil
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
func wrapConnectionError(err error, cfg *mokka.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - The %s server is not running
  - Wrong host or port (--host, --port)
  - Firewall blocking the connection

Original error: %w`, addr, cfg.Driver, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, cfg.Host, err)

	case strings.Contains(errStr, "password authentication failed") || strings.Contains(errStr, "access denied"):
		return fmt.Errorf(`authentication failed for user "%s" on database "%s"

Possible causes:
  - Wrong password (check $MOKKA_PASSWORD or use -W)
  - Wrong username
  - User does not have access to the database

Original error: %w`, cfg.Username, cfg.Database, err)

	case strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "unknown database"):
		return fmt.Errorf(`database "%s" does not exist on %s

Check the database name (--database or $MOKKA_DATABASE).

Original error: %w`, cfg.Database, addr, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to %s

The server's connection limit is reached; try again later.

Original error: %w`, addr, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
