package store

import (
	"context"

	goerrors "github.com/go-errors/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// PostgresSource reads the models database through a pgx connection pool.
type PostgresSource struct {
	pool    *pgxpool.Pool
	onClose func()
}

// NewPostgresSource wraps pool. Close closes the pool and then calls onClose
// (may be nil), which connectors use to release dialers.
func NewPostgresSource(pool *pgxpool.Pool, onClose func()) *PostgresSource {
	return &PostgresSource{pool: pool, onClose: onClose}
}

func (s *PostgresSource) DriverDefaults(ctx context.Context, model string) ([]mokka.DriverDefault, error) {
	rows, err := s.pool.Query(ctx, dollarPlaceholders(driverDefaultsQuery), model)
	if err != nil {
		return nil, queryError("driver defaults", model, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mokka.DriverDefault, error) {
		vals, err := row.Values()
		if err != nil {
			return mokka.DriverDefault{}, err
		}
		return mokka.DriverDefault{
			Driver:    mokka.NewValue(vals[0]).String(),
			Parameter: mokka.NewValue(vals[1]).String(),
			Value:     columnValue(vals[2], ""),
		}, nil
	})
	if err != nil {
		return nil, queryError("driver defaults", model, err)
	}
	return out, nil
}

func (s *PostgresSource) ModelOverrides(ctx context.Context, model string) ([]mokka.Override, error) {
	rows, err := s.pool.Query(ctx, dollarPlaceholders(modelOverridesQuery), model)
	if err != nil {
		return nil, queryError("model parameters", model, err)
	}

	if n := len(rows.FieldDescriptions()); n <= overrideValueColumn {
		rows.Close()
		return nil, goerrors.Errorf("model_parameters has %d columns, need at least %d: %w",
			n, overrideValueColumn+1, mokka.ErrQueryFailed)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mokka.Override, error) {
		vals, err := row.Values()
		if err != nil {
			return mokka.Override{}, err
		}
		return mokka.Override{
			Parameter: mokka.NewValue(vals[overrideNameColumn]).String(),
			Value:     columnValue(vals[overrideValueColumn], ""),
		}, nil
	})
	if err != nil {
		return nil, queryError("model parameters", model, err)
	}
	return out, nil
}

func (s *PostgresSource) GlobalDefaults(ctx context.Context, name string) ([]mokka.Value, error) {
	rows, err := s.pool.Query(ctx, dollarPlaceholders(globalDefaultsQuery), name)
	if err != nil {
		return nil, queryError("global default", name, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mokka.Value, error) {
		vals, err := row.Values()
		if err != nil {
			return mokka.Value{}, err
		}
		return columnValue(vals[1], ""), nil
	})
	if err != nil {
		return nil, queryError("global default", name, err)
	}
	return out, nil
}

func (s *PostgresSource) Close() error {
	s.pool.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

var _ mokka.ParameterSource = (*PostgresSource)(nil)
