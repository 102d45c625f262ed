package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ilcsoft/mokkadump/internal/retry"
	"github.com/ilcsoft/mokkadump/internal/store"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// tokenExpiryWarning is the remaining lifetime below which a fresh token is reported.
const tokenExpiryWarning = 5 * time.Minute

// TokenProvider issues short-lived tokens that stand in for the database password.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs and must not contain secrets.
	String() string
}

// TokenBasedConnector implements mokka.Connector for cloud providers that
// authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the password.
type TokenBasedConnector struct {
	config        *mokka.ConnectionConfig
	tokenProvider TokenProvider
	retrier       *retry.Retrier
	providerName  string
	logger        mokka.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *mokka.ConnectionConfig, tokenProvider TokenProvider, providerName string, opts Options) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retrier:       opts.retrier(),
		providerName:  providerName,
		logger:        opts.logger(),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (mokka.ParameterSource, error) {
	src, err := retry.Do(ctx, c.retrier, func(ctx context.Context) (mokka.ParameterSource, error) {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		c.logger.Verbose("acquired token from %s", c.tokenProvider)

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		configWithToken := *c.config
		configWithToken.Password = token

		switch configWithToken.Driver {
		case mokka.DriverPostgres:
			pool, err := openPostgres(ctx, &configWithToken, c.logger, nil)
			if err != nil {
				return nil, err
			}
			return store.NewPostgresSource(pool, nil), nil
		case mokka.DriverMySQL:
			// Tokens are sent as cleartext passwords, which the server only
			// accepts over TLS.
			db, err := openMySQL(ctx, &configWithToken, func(mc *mysql.Config) {
				mc.AllowCleartextPasswords = true
				if mc.TLSConfig == "" || mc.TLSConfig == "false" || mc.TLSConfig == "preferred" {
					mc.TLSConfig = "true"
				}
			})
			if err != nil {
				return nil, err
			}
			return store.NewSQLSource(db), nil
		}
		return nil, fmt.Errorf("%s authentication is not available for driver %q: %w",
			c.providerName, configWithToken.Driver, mokka.ErrUnsupportedAuthMethod)
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", mokka.ErrConnectionFailed, err)
	}
	return src, nil
}
