package services_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilcsoft/mokkadump/internal/db"
	"github.com/ilcsoft/mokkadump/internal/logging"
	"github.com/ilcsoft/mokkadump/internal/services"
	testhelpers "github.com/ilcsoft/mokkadump/internal/testing"
	"github.com/ilcsoft/mokkadump/internal/testing/fixtures"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

func connectorFactory(cfg *mokka.ConnectionConfig) (mokka.Connector, error) {
	return db.NewConnector(cfg, db.Options{MaxRetries: -1})
}

// exportILD runs a full export of the ILD fixture model against dsn and
// returns the constant lines of the written file.
func exportILD(t *testing.T, dsn string) []string {
	t.Helper()

	conn, err := db.ParseDSN(dsn)
	require.NoError(t, err)

	svc := services.NewExportService(connectorFactory, logging.Discard, time.Now)
	result, err := svc.Export(context.Background(), mokka.ExportConfig{
		Model:      fixtures.ILDModel,
		Connection: conn,
		OutputDir:  t.TempDir(),
		Timeout:    time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, len(fixtures.ILDExpected), result.Parameters)
	assert.Equal(t, 3, result.FromFallback)
	assert.Equal(t, 1, result.Unresolved)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 6, "header has six lines")
	assert.Equal(t, "<!-- ", lines[0])
	assert.Equal(t, "  global model parameters for model: "+fixtures.ILDModel, lines[1])
	assert.Equal(t, " -->", lines[5])
	return lines[6:]
}

func TestExport_DuckDBSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models03.duckdb")
	snapshot, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := snapshot.ExecContext(ctx, query, args...)
		return err
	}
	require.NoError(t, fixtures.ILDFixture().Load(context.Background(), exec, fixtures.QuestionMark, true))
	require.NoError(t, snapshot.Close())

	got := exportILD(t, "duckdb://"+path)
	assert.Equal(t, fixtures.ILDExpected, got)
}

func TestExport_PostgreSQL(t *testing.T) {
	connString := testhelpers.RequirePostgres(t)
	dsn := testhelpers.CreatePostgresModelsDB(t, connString, "mokka_test_export", fixtures.ILDFixture())

	got := exportILD(t, dsn)
	assert.Equal(t, fixtures.ILDExpected, got)
}

func TestExport_MySQL(t *testing.T) {
	base := testhelpers.RequireMySQL(t)
	dsn := testhelpers.CreateMySQLModelsDB(t, base, "mokka_test_export", fixtures.ILDFixture())

	got := exportILD(t, dsn)
	assert.Equal(t, fixtures.ILDExpected, got)
}

func TestExport_MySQL_UnknownModelHeaderOnly(t *testing.T) {
	base := testhelpers.RequireMySQL(t)
	dsn := testhelpers.CreateMySQLModelsDB(t, base, "mokka_test_unknown", fixtures.ILDFixture())

	conn, err := db.ParseDSN(dsn)
	require.NoError(t, err)

	svc := services.NewExportService(connectorFactory, logging.Discard, time.Now)
	result, err := svc.Export(context.Background(), mokka.ExportConfig{
		Model:      "no_such_model",
		Connection: conn,
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Parameters)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\n"))
}
