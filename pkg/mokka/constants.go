package mokka

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Export completed (or usage printed)
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // Invalid flags
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitQueryFailed     = 13 // A query against the models database failed
	ExitOutputFailed    = 14 // The output file could not be written
)

// Legacy Mokka database coordinates. These were the only connection settings
// the original export script knew about and remain the defaults when nothing
// else is configured.
const (
	LegacyHost     = "pollin1.in2p3.fr"
	LegacyPort     = 3306
	LegacyUser     = "consult"
	LegacyPassword = "consult"
	LegacyDatabase = "models03"
)

const (
	// DefaultNullMarker is written for parameters that have no value after
	// all three resolution layers.
	DefaultNullMarker = "None"

	// OutputFilePrefix and OutputFileSuffix surround the model name in the
	// output file name: model_parameters_<model>.xml
	OutputFilePrefix = "model_parameters_"
	OutputFileSuffix = ".xml"

	// DefaultTimeout bounds a whole export run.
	DefaultTimeout = 3 * time.Minute

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connection retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultPostgresPort and DefaultMySQLPort are used when a DSN or flag set omits the port.
	DefaultPostgresPort = 5432
	DefaultMySQLPort    = 3306
)

// OutputFileName returns the file name an export of model is written to.
func OutputFileName(model string) string {
	return OutputFilePrefix + model + OutputFileSuffix
}
