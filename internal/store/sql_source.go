package store

import (
	"context"
	"database/sql"
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// SQLSource reads the models database through database/sql.
// Used for MySQL (go-sql-driver/mysql) and DuckDB snapshots; both accept
// '?' placeholders.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps an open *sql.DB. The source takes ownership: Close
// closes db.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) DriverDefaults(ctx context.Context, model string) ([]mokka.DriverDefault, error) {
	rows, err := s.db.QueryContext(ctx, driverDefaultsQuery, model)
	if err != nil {
		return nil, queryError("driver defaults", model, err)
	}
	defer rows.Close()

	types, err := databaseTypes(rows)
	if err != nil {
		return nil, queryError("driver defaults", model, err)
	}

	var out []mokka.DriverDefault
	for rows.Next() {
		var driverName, parameter, value any
		if err := rows.Scan(&driverName, &parameter, &value); err != nil {
			return nil, queryError("driver defaults", model, err)
		}
		out = append(out, mokka.DriverDefault{
			Driver:    mokka.NewValue(driverName).String(),
			Parameter: mokka.NewValue(parameter).String(),
			Value:     columnValue(value, types[2]),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("driver defaults", model, err)
	}
	return out, nil
}

func (s *SQLSource) ModelOverrides(ctx context.Context, model string) ([]mokka.Override, error) {
	rows, err := s.db.QueryContext(ctx, modelOverridesQuery, model)
	if err != nil {
		return nil, queryError("model parameters", model, err)
	}
	defer rows.Close()

	cols, err := databaseTypes(rows)
	if err != nil {
		return nil, queryError("model parameters", model, err)
	}
	if len(cols) <= overrideValueColumn {
		return nil, goerrors.Errorf("model_parameters has %d columns, need at least %d: %w",
			len(cols), overrideValueColumn+1, mokka.ErrQueryFailed)
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	var out []mokka.Override
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, queryError("model parameters", model, err)
		}
		out = append(out, mokka.Override{
			Parameter: mokka.NewValue(values[overrideNameColumn]).String(),
			Value:     columnValue(values[overrideValueColumn], cols[overrideValueColumn]),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("model parameters", model, err)
	}
	return out, nil
}

func (s *SQLSource) GlobalDefaults(ctx context.Context, name string) ([]mokka.Value, error) {
	rows, err := s.db.QueryContext(ctx, globalDefaultsQuery, name)
	if err != nil {
		return nil, queryError("global default", name, err)
	}
	defer rows.Close()

	types, err := databaseTypes(rows)
	if err != nil {
		return nil, queryError("global default", name, err)
	}

	var out []mokka.Value
	for rows.Next() {
		var n, value any
		if err := rows.Scan(&n, &value); err != nil {
			return nil, queryError("global default", name, err)
		}
		out = append(out, columnValue(value, types[1]))
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("global default", name, err)
	}
	return out, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// queryError wraps a database error with a stack trace and ErrQueryFailed.
func queryError(what, key string, err error) error {
	return goerrors.Wrap(fmt.Errorf("query %s for %q: %w: %w", what, key, mokka.ErrQueryFailed, err), 1)
}

var _ mokka.ParameterSource = (*SQLSource)(nil)
