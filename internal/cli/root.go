package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ilcsoft/mokkadump/internal/config"
	"github.com/ilcsoft/mokkadump/internal/db"
	"github.com/ilcsoft/mokkadump/internal/logging"
	"github.com/ilcsoft/mokkadump/internal/services"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

const usageLine = " usage: mokkadump MODEL_NAME "

const longHelp = `mokkadump extracts the global model parameters of one detector model from the
Mokka models database and writes them to model_parameters_<MODEL_NAME>.xml.

Values are resolved in three layers:
  1. driver defaults of every sub-detector in the model
  2. model specific overrides from model_parameters
  3. the global parameters table, for values that are still empty

Connection (highest precedence first):
  --dsn, or --driver/-h/-p/-U/--sslmode
  $MOKKA_DSN / $DATABASE_URL, or $MOKKA_HOST, $MOKKA_PORT, $MOKKA_USER, ...
  mokkadump.yaml in the working directory (or --config)
  the historical Mokka server: mysql://consult@pollin1.in2p3.fr:3306/models03

Password Authentication:
  Passwords are NOT accepted as flags. Use one of:
    1. $MOKKA_PASSWORD environment variable
    2. A DSN with an embedded password
    3. -W to prompt on the terminal

Examples:
  mokkadump ILD_o1_v05
  mokkadump ILD_o1_v05 --dsn duckdb://./models03.duckdb -o out/
  mokkadump ILD_o1_v05 --driver postgres -h db.example.org -U reader -d models03

Exit Codes:
  0  - Success (also when usage is printed)
  1  - General error
  2  - CLI usage error (invalid flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or unsupported authentication
  11 - Database connection failed
  13 - Query against the models database failed
  14 - Output file could not be written`

type exportFlagValues struct {
	dsn, driver, host, username, database, sslMode string
	port                                           int
	passwordPrompt                                 bool

	auth, awsRegion, azureTenantID, azureClientID, googleInstance string

	configPath, outputDir, nullMarker string
	retries                           int
	timeout                           time.Duration

	verbose, version bool
}

// readPassword reads a password from the terminal without echo.
var readPassword = func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("-W requires an interactive terminal: %w", mokka.ErrInvalidConfig)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var flags exportFlagValues

	cmd := &cobra.Command{
		Use:          "mokkadump MODEL_NAME",
		Short:        "Dump the global parameters of a Mokka detector model",
		Long:         longHelp,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, &flags)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", mokka.ErrUsage, err)
	})

	f := cmd.Flags()
	f.Bool("help", false, "Help for mokkadump")
	f.BoolVar(&flags.version, "version", false, "Print version information")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")

	f.StringVar(&flags.dsn, "dsn", "",
		"Models database DSN (mysql://, postgresql://, duckdb://path or user:pass@tcp(host:port)/db).\n"+
			"Mutually exclusive with --driver, --host, --port, --username and --sslmode.\n"+
			"Alternative: $MOKKA_DSN or $DATABASE_URL")
	f.StringVar(&flags.driver, "driver", "",
		"Database driver: mysql|postgres|duckdb (default: mysql, or $MOKKA_DRIVER)")
	f.StringVarP(&flags.host, "host", "h", "",
		"Database server host\n"+
			"Precedence: --host > $MOKKA_HOST > "+mokka.LegacyHost)
	f.IntVarP(&flags.port, "port", "p", 0,
		"Database server port (default: driver port, or $MOKKA_PORT)")
	f.StringVarP(&flags.username, "username", "U", "",
		"Database user (default: $MOKKA_USER or "+mokka.LegacyUser+")")
	f.StringVarP(&flags.database, "database", "d", "",
		"Database name, or snapshot path for duckdb (overrides the DSN database)")
	f.StringVar(&flags.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full (or $MOKKA_SSLMODE)")
	f.BoolVarP(&flags.passwordPrompt, "password-prompt", "W", false,
		"Prompt for the password on the terminal")

	f.StringVar(&flags.auth, "auth", "",
		"Authentication method: standard|aws-iam|azure|google-iam (default: standard)")
	f.StringVar(&flags.awsRegion, "aws-region", "",
		"AWS region for RDS IAM authentication (overrides $AWS_REGION)")
	f.StringVar(&flags.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	f.StringVar(&flags.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	f.StringVar(&flags.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name, project:region:instance")

	f.StringVar(&flags.configPath, "config", "",
		"Path to a config file (default: ./"+config.ConfigFileName+" when present)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "",
		"Directory the XML file is written to (default: working directory)")
	f.StringVar(&flags.nullMarker, "null-marker", "",
		"Text written for values that stay empty (default: "+mokka.DefaultNullMarker+")")
	f.IntVar(&flags.retries, "retries", 0,
		"Connection retry attempts (0 = default, negative disables retry)")
	f.DurationVar(&flags.timeout, "timeout", mokka.DefaultTimeout,
		"Upper bound for the whole export\n"+
			"Examples: 30s, 5m")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, flags *exportFlagValues) error {
	out := cmd.OutOrStdout()
	if flags.version {
		printVersionInfo(out)
		return nil
	}
	if len(args) != 1 {
		fmt.Fprintln(out, usageLine)
		return nil
	}

	_ = godotenv.Load()

	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), flags.verbose)

	exportCfg, err := buildExportConfig(cmd, args[0], flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := services.NewExportService(
		func(c *mokka.ConnectionConfig) (mokka.Connector, error) {
			return db.NewConnector(c, db.Options{MaxRetries: flags.retries, Logger: logger})
		},
		logger,
		time.Now,
	)

	result, err := svc.Export(ctx, exportCfg)
	if err != nil {
		logStack(logger, err)
		return err
	}

	logger.Info("Wrote %s (%d parameters)", result.OutputPath, result.Parameters)
	return nil
}

// buildExportConfig merges flags, environment and the config file.
func buildExportConfig(cmd *cobra.Command, model string, flags *exportFlagValues) (mokka.ExportConfig, error) {
	if model == "" {
		return mokka.ExportConfig{}, fmt.Errorf("model name is required: %w", mokka.ErrInvalidConfig)
	}

	projectCfg, err := loadProjectConfig(flags.configPath)
	if err != nil {
		return mokka.ExportConfig{}, err
	}

	granular := &db.GranularConnFlags{
		Driver:   flags.driver,
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}
	auth := &db.AuthFlags{
		Method:         flags.auth,
		AWSRegion:      flags.awsRegion,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
		GoogleInstance: flags.googleInstance,
	}

	conn, err := db.ResolveConnection(flags.dsn, granular, auth, db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return mokka.ExportConfig{}, err
	}

	if flags.passwordPrompt {
		if conn.AuthMethod != mokka.AuthMethodStandard || conn.Driver == mokka.DriverDuckDB {
			return mokka.ExportConfig{}, fmt.Errorf("-W cannot be combined with %s %s authentication: %w",
				conn.Driver, conn.AuthMethod, mokka.ErrInvalidConfig)
		}
		pw, err := readPassword()
		if err != nil {
			return mokka.ExportConfig{}, err
		}
		conn.Password = pw
	}

	cfg := mokka.ExportConfig{
		Model:      model,
		Connection: conn,
		OutputDir:  flags.outputDir,
		NullMarker: flags.nullMarker,
		Timeout:    flags.timeout,
		Verbose:    flags.verbose,
	}

	if projectCfg != nil {
		if cfg.OutputDir == "" {
			cfg.OutputDir = projectCfg.Output.Dir
		}
		if cfg.NullMarker == "" {
			cfg.NullMarker = projectCfg.Output.NullMarker
		}
		if !cmd.Flags().Changed("timeout") && projectCfg.Timeout != "" {
			d, err := time.ParseDuration(projectCfg.Timeout)
			if err != nil {
				return mokka.ExportConfig{}, fmt.Errorf("timeout %q in config: %w", projectCfg.Timeout, mokka.ErrInvalidConfig)
			}
			cfg.Timeout = d
		}
	}

	return cfg, nil
}

// loadProjectConfig reads an explicit --config file, or mokkadump.yaml from
// the working directory when it exists. A missing default file is not an error.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", mokka.ErrInvalidConfig, err)
		}
		return cfg, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(wd)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mokka.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// logStack prints the stack trace of database errors in verbose mode.
func logStack(logger *logging.ConsoleLogger, err error) {
	if !logger.IsVerbose() {
		return
	}
	var stackErr *goerrors.Error
	if errors.As(err, &stackErr) {
		logger.Verbose("%s", strings.TrimRight(string(stackErr.Stack()), "\n"))
	}
}
