package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ilcsoft/mokkadump/internal/config"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// GranularConnFlags represents connection parameters from CLI flags
// (--driver, -h, -p, -U, -d, --sslmode).
//
// Note: Password is NOT a CLI flag. Use $MOKKA_PASSWORD, a DSN with an
// embedded password, or the -W prompt.
type GranularConnFlags struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database is excluded because -d may override the database of a DSN.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Driver == "" && g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AuthFlags represents the cloud authentication CLI flags.
// The Azure client secret is NOT a flag; it comes from $AZURE_CLIENT_SECRET.
type AuthFlags struct {
	Method         string
	AWSRegion      string
	AzureTenantID  string
	AzureClientID  string
	GoogleInstance string
}

// EnvVars represents the environment variables consulted for the connection.
type EnvVars struct {
	MOKKA_DSN      string
	DATABASE_URL   string // Full DSN (Heroku/Rails convention), used when MOKKA_DSN is unset
	MOKKA_DRIVER   string
	MOKKA_HOST     string
	MOKKA_PORT     string
	MOKKA_USER     string
	MOKKA_PASSWORD string
	MOKKA_DATABASE string
	MOKKA_SSLMODE  string

	AWS_REGION string

	// Azure SDK standard names
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		MOKKA_DSN:           os.Getenv("MOKKA_DSN"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		MOKKA_DRIVER:        os.Getenv("MOKKA_DRIVER"),
		MOKKA_HOST:          os.Getenv("MOKKA_HOST"),
		MOKKA_PORT:          os.Getenv("MOKKA_PORT"),
		MOKKA_USER:          os.Getenv("MOKKA_USER"),
		MOKKA_PASSWORD:      os.Getenv("MOKKA_PASSWORD"),
		MOKKA_DATABASE:      os.Getenv("MOKKA_DATABASE"),
		MOKKA_SSLMODE:       os.Getenv("MOKKA_SSLMODE"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

func (e *EnvVars) dsn() string {
	if e.MOKKA_DSN != "" {
		return e.MOKKA_DSN
	}
	return e.DATABASE_URL
}

func (e *EnvVars) hasGranular() bool {
	return e.MOKKA_DRIVER != "" || e.MOKKA_HOST != "" || e.MOKKA_PORT != "" || e.MOKKA_USER != "" || e.MOKKA_SSLMODE != ""
}

// ResolveConnection resolves connection parameters with this precedence:
//
//  1. DSN flag (--dsn)
//  2. Granular flags (--driver, -h, -p, -U, --sslmode)
//  3. Environment: $MOKKA_DSN or $DATABASE_URL, then $MOKKA_HOST etc.
//  4. mokkadump.yaml (dsn, then individual keys)
//  5. The legacy Mokka server: mysql pollin1.in2p3.fr:3306, consult/consult, models03
//
// A DSN from a higher level wins over granular values from lower levels;
// granular values from a higher level win over a DSN from a lower level.
// -d always overrides the database. The legacy password is only used when
// the resolved user is the legacy user.
//
// Returns an ErrInvalidConfig error if BOTH --dsn AND granular flags are provided.
func ResolveConnection(
	dsnFlag string,
	granularFlags *GranularConnFlags,
	authFlags *AuthFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*mokka.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if authFlags == nil {
		authFlags = &AuthFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if dsnFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --dsn and granular flags (--driver, -h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. DSN: --dsn \"mysql://consult@pollin1.in2p3.fr:3306/models03\"\n"+
				"  2. Granular flags: --driver mysql -h pollin1.in2p3.fr -U consult -d models03\n"+
				"  3. Environment variables: export MOKKA_HOST=pollin1.in2p3.fr MOKKA_USER=consult: %w",
			mokka.ErrInvalidConfig,
		)
	}

	var dsn string
	switch {
	case dsnFlag != "":
		dsn = dsnFlag
	case !granularFlags.IsEmpty():
	case envVars.dsn() != "":
		dsn = envVars.dsn()
	case !envVars.hasGranular():
		dsn = pc.DSN
	}

	var (
		cfg *mokka.ConnectionConfig
		err error
	)
	if dsn != "" {
		cfg, err = resolveFromDSN(dsn, granularFlags, envVars)
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyAuth(cfg, authFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveFromDSN parses dsn and fills in what it leaves open:
// the database from -d, the password from $MOKKA_PASSWORD.
func resolveFromDSN(dsn string, flags *GranularConnFlags, envVars *EnvVars) (*mokka.ConnectionConfig, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if cfg.Database == "" && cfg.Driver != mokka.DriverDuckDB {
		cfg.Database = mokka.LegacyDatabase
	}
	if cfg.Password == "" {
		cfg.Password = envVars.MOKKA_PASSWORD
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.MOKKA_SSLMODE
	}
	applyLegacyPassword(cfg)
	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig field by field.
//
// Precedence for each parameter:
// 1. CLI flag (highest priority)
// 2. Environment variable
// 3. mokkadump.yaml
// 4. Legacy default (lowest priority)
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*mokka.ConnectionConfig, error) {
	driverName := firstNonEmpty(flags.Driver, envVars.MOKKA_DRIVER, pc.Driver)
	driver := mokka.DriverMySQL
	if driverName != "" {
		var err error
		if driver, err = mokka.ParseDriver(driverName); err != nil {
			return nil, err
		}
	}

	cfg := &mokka.ConnectionConfig{
		Driver:     driver,
		AuthMethod: mokka.AuthMethodStandard,
	}

	// Database: flag > MOKKA_DATABASE > mokkadump.yaml > models03
	// For duckdb this is the snapshot file path and has no default.
	cfg.Database = firstNonEmpty(flags.Database, envVars.MOKKA_DATABASE, pc.Database)
	if driver == mokka.DriverDuckDB {
		return cfg, nil
	}
	if cfg.Database == "" {
		cfg.Database = mokka.LegacyDatabase
	}

	// Host: flag > MOKKA_HOST > mokkadump.yaml > legacy host (mysql) or localhost
	cfg.Host = firstNonEmpty(flags.Host, envVars.MOKKA_HOST, pc.Host)
	if cfg.Host == "" {
		if driver == mokka.DriverMySQL {
			cfg.Host = mokka.LegacyHost
		} else {
			cfg.Host = "localhost"
		}
	}

	// Port: flag > MOKKA_PORT > mokkadump.yaml > driver default
	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.MOKKA_PORT != "":
		port, err := strconv.Atoi(envVars.MOKKA_PORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $MOKKA_PORT value '%s': must be an integer: %w", envVars.MOKKA_PORT, mokka.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = driver.DefaultPort()
	}

	// Username: flag > MOKKA_USER > mokkadump.yaml > legacy user (mysql) or OS user
	cfg.Username = firstNonEmpty(flags.Username, envVars.MOKKA_USER, pc.Username)
	if cfg.Username == "" {
		if driver == mokka.DriverMySQL {
			cfg.Username = mokka.LegacyUser
		} else {
			cfg.Username = firstNonEmpty(os.Getenv("USER"), os.Getenv("USERNAME"))
		}
	}

	cfg.Password = envVars.MOKKA_PASSWORD
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.MOKKA_SSLMODE, pc.SSLMode)
	if cfg.SSLMode == "" && driver == mokka.DriverPostgres {
		cfg.SSLMode = "prefer"
	}

	applyLegacyPassword(cfg)
	return cfg, nil
}

// applyLegacyPassword supplies the public read-only password of the legacy
// account when no password was given.
func applyLegacyPassword(cfg *mokka.ConnectionConfig) {
	if cfg.Password == "" && cfg.Driver == mokka.DriverMySQL && cfg.Username == mokka.LegacyUser {
		cfg.Password = mokka.LegacyPassword
	}
}

// applyAuth selects the authentication method and attaches cloud settings.
// Method: flag > mokkadump.yaml > Azure when tenant or client id flags are set.
// Other values: flag > environment > mokkadump.yaml.
func applyAuth(cfg *mokka.ConnectionConfig, flags *AuthFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method, err := mokka.ParseAuthMethod(firstNonEmpty(flags.Method, pc.AuthMethod))
	if err != nil {
		return err
	}
	if method == mokka.AuthMethodStandard && flags.Method == "" && pc.AuthMethod == "" &&
		(flags.AzureTenantID != "" || flags.AzureClientID != "") {
		method = mokka.AuthMethodAzureEntraID
	}
	cfg.AuthMethod = method

	switch method {
	case mokka.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case mokka.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case mokka.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	}

	// Token authentication replaces any password, including the legacy one.
	if method != mokka.AuthMethodStandard {
		cfg.Password = ""
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
