package mokka

import "context"

// DriverDefault is one row of the ingredients/sub_detector/sharing join:
// the default value a sub-detector driver gives a parameter.
type DriverDefault struct {
	Driver    string
	Parameter string
	Value     Value
}

// Override is a model-specific parameter value from model_parameters.
type Override struct {
	Parameter string
	Value     Value
}

// ParameterSource reads the three resolution layers from the models database.
//
// Rows are returned in the order the database produced them; resolution is
// last-writer-wins, so order is significant.
type ParameterSource interface {
	// DriverDefaults returns the driver default values of every sub-detector
	// that makes up model.
	DriverDefaults(ctx context.Context, model string) ([]DriverDefault, error)

	// ModelOverrides returns the values explicitly set for model.
	ModelOverrides(ctx context.Context, model string) ([]Override, error)

	// GlobalDefaults returns the default_value of every parameters row named name.
	// An empty slice means no fallback exists.
	GlobalDefaults(ctx context.Context, name string) ([]Value, error)

	// Close releases the underlying connection.
	Close() error
}
