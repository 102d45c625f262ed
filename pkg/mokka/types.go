package mokka

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Driver selects the database engine holding the models database.
type Driver string

const (
	DriverMySQL    Driver = "mysql"    // The historical Mokka server
	DriverPostgres Driver = "postgres" // Migrated copies of the models database
	DriverDuckDB   Driver = "duckdb"   // Local snapshot files
)

// ParseDriver converts a user supplied driver name.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	case "duckdb":
		return DriverDuckDB, nil
	}
	return "", fmt.Errorf("unknown driver %q (expected mysql, postgres or duckdb): %w", s, ErrInvalidConfig)
}

// DefaultPort returns the conventional server port for d, or 0 for file based drivers.
func (d Driver) DefaultPort() int {
	switch d {
	case DriverMySQL:
		return DefaultMySQLPort
	case DriverPostgres:
		return DefaultPostgresPort
	}
	return 0
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM Database Authentication
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAuthMethod converts the --auth flag value.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws-iam", "aws":
		return AuthMethodAWSIAM, nil
	case "azure", "azure-entra-id", "entra":
		return AuthMethodAzureEntraID, nil
	case "google-iam", "google", "gcp":
		return AuthMethodGoogleIAM, nil
	}
	return AuthMethodStandard, fmt.Errorf("unknown auth method %q: %w", s, ErrUnsupportedAuthMethod)
}

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Driver   Driver
	Host     string
	Port     int
	Database string // Database name, or file path for DuckDB
	Username string
	Password string
	SSLMode  string

	AuthMethod AuthMethod

	// AWS RDS IAM (AuthMethodAWSIAM)
	AWSRegion string

	// Azure Entra ID (AuthMethodAzureEntraID). With all three set a Service
	// Principal is used, otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Google Cloud SQL instance connection name, project:region:instance (AuthMethodGoogleIAM)
	GoogleInstance string

	ConnectTimeout time.Duration
}

// SourceHost returns the host named in the output header.
func (c *ConnectionConfig) SourceHost() string {
	switch {
	case c.Driver == DriverDuckDB:
		return "localhost"
	case c.AuthMethod == AuthMethodGoogleIAM && c.GoogleInstance != "":
		return c.GoogleInstance
	}
	return c.Host
}

// Validate checks that the configuration can be used to connect.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	switch c.Driver {
	case DriverMySQL, DriverPostgres:
		if c.Host == "" && c.AuthMethod != AuthMethodGoogleIAM {
			errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
		}
		if c.Database == "" {
			errs = append(errs, fmt.Errorf("database is required: %w", ErrInvalidConfig))
		}
	case DriverDuckDB:
		if c.Database == "" {
			errs = append(errs, fmt.Errorf("duckdb requires a database file path: %w", ErrInvalidConfig))
		}
		if c.AuthMethod != AuthMethodStandard {
			errs = append(errs, fmt.Errorf("duckdb does not support %s authentication: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q: %w", c.Driver, ErrInvalidConfig))
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Port, ErrInvalidConfig))
	}

	if c.AuthMethod == AuthMethodGoogleIAM && c.Driver != DriverPostgres {
		errs = append(errs, fmt.Errorf("Google Cloud SQL IAM is only supported for postgres: %w", ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// ExportConfig contains all parameters needed for one export run.
type ExportConfig struct {
	// Model is the model name, e.g. ILD_o1_v05
	Model string

	// Connection locates the models database
	Connection *ConnectionConfig

	// OutputDir is where model_parameters_<model>.xml is written ("" = working directory)
	OutputDir string

	// NullMarker is written for unresolved values ("" = DefaultNullMarker)
	NullMarker string

	// Timeout bounds the whole run (0 = no limit)
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the ExportConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ExportConfig) Validate() error {
	var errs []error

	if c.Model == "" {
		errs = append(errs, fmt.Errorf("model name is required: %w", ErrInvalidConfig))
	}

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("connection is required: %w", ErrInvalidConfig))
	} else if err := c.Connection.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Parameter is one resolved name/value pair.
type Parameter struct {
	Name  string
	Value Value
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	OutputPath string
	Parameters int

	// FromFallback counts parameters whose value came from the global parameters table.
	FromFallback int

	// Unresolved counts parameters still falsy after all layers.
	Unresolved int
}
