package mokka

import "context"

// Connector is a unified interface for establishing a connection to the
// models database. Implementations cover the supported drivers and
// authentication methods (password, cloud IAM tokens, Cloud SQL dialer).
type Connector interface {
	// Connect opens the database and returns a ParameterSource reading from it.
	// The caller owns the source and must Close it.
	Connect(ctx context.Context) (ParameterSource, error)
}
