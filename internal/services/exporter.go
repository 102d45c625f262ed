package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ilcsoft/mokkadump/internal/resolve"
	"github.com/ilcsoft/mokkadump/internal/xmlout"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// ExportService exports the resolved parameters of one model per Export call.
// Safe for concurrent use; each call opens its own connection.
type ExportService struct {
	connectorFactory func(*mokka.ConnectionConfig) (mokka.Connector, error)
	logger           mokka.Logger
	now              func() time.Time
}

// NewExportService creates a new ExportService with all dependencies injected.
// now stamps the output header; pass time.Now outside tests.
//
// Panics on nil dependencies: they are wiring mistakes, not runtime conditions.
func NewExportService(
	connectorFactory func(*mokka.ConnectionConfig) (mokka.Connector, error),
	logger mokka.Logger,
	now func() time.Time,
) *ExportService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if now == nil {
		panic("now cannot be nil")
	}
	return &ExportService{
		connectorFactory: connectorFactory,
		logger:           logger,
		now:              now,
	}
}

// Export connects to the models database, resolves the parameters of
// cfg.Model and writes model_parameters_<model>.xml into cfg.OutputDir.
//
// An unknown model is not an error: it produces a file holding only the header.
func (s *ExportService) Export(ctx context.Context, cfg mokka.ExportConfig) (*mokka.ExportResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	conn := cfg.Connection
	s.logger.Verbose("Connecting to %s", describe(conn))

	connector, err := s.connectorFactory(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	src, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.logger.Verbose("closing connection: %v", cerr)
		}
	}()

	defaults, err := src.DriverDefaults(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Read %d driver default(s) for %s", len(defaults), cfg.Model)

	overrides, err := src.ModelOverrides(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Read %d model override(s) for %s", len(overrides), cfg.Model)

	resolved, err := resolve.Resolve(ctx, defaults, overrides, src)
	if err != nil {
		return nil, err
	}
	if len(resolved.Parameters) == 0 {
		s.logger.Info("No parameters found for model %s; writing header only", cfg.Model)
	}

	nullMarker := cfg.NullMarker
	if nullMarker == "" {
		nullMarker = mokka.DefaultNullMarker
	}

	header := xmlout.Header{
		Model:    cfg.Model,
		Host:     conn.SourceHost(),
		Database: conn.Database,
		Time:     s.now(),
	}
	path, err := xmlout.WriteFile(cfg.OutputDir, header, resolved.Parameters, nullMarker)
	if err != nil {
		return nil, err
	}

	s.logger.Verbose("%d parameter(s) taken from global defaults, %d unresolved",
		resolved.FromFallback, resolved.Unresolved)

	return &mokka.ExportResult{
		OutputPath:   path,
		Parameters:   len(resolved.Parameters),
		FromFallback: resolved.FromFallback,
		Unresolved:   resolved.Unresolved,
	}, nil
}

// describe renders conn for logs without the password.
func describe(conn *mokka.ConnectionConfig) string {
	switch {
	case conn.Driver == mokka.DriverDuckDB:
		return fmt.Sprintf("duckdb snapshot %s", conn.Database)
	case conn.AuthMethod == mokka.AuthMethodGoogleIAM:
		return fmt.Sprintf("postgres %s@%s/%s (Google IAM)", conn.Username, conn.GoogleInstance, conn.Database)
	}
	return fmt.Sprintf("%s %s@%s:%d/%s (%s auth)", conn.Driver, conn.Username, conn.Host, conn.Port, conn.Database, conn.AuthMethod)
}
