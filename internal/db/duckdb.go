package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/ilcsoft/mokkadump/internal/store"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// DuckDBConnector opens a local DuckDB snapshot of the models database.
// The file is opened read-only and must exist.
type DuckDBConnector struct {
	path string
}

// NewDuckDBConnector creates a connector for the snapshot at path.
func NewDuckDBConnector(path string) *DuckDBConnector {
	return &DuckDBConnector{path: path}
}

func (c *DuckDBConnector) Connect(ctx context.Context) (mokka.ParameterSource, error) {
	if _, err := os.Stat(c.path); err != nil {
		return nil, fmt.Errorf("open DuckDB snapshot %s: %w: %w", c.path, mokka.ErrConnectionFailed, err)
	}

	db, err := sql.Open("duckdb", c.path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open DuckDB snapshot %s: %w: %w", c.path, mokka.ErrConnectionFailed, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open DuckDB snapshot %s: %w: %w", c.path, mokka.ErrConnectionFailed, err)
	}
	return store.NewSQLSource(db), nil
}
