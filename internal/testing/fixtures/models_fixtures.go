package fixtures

import (
	"context"
	"fmt"
	"strings"
)

// SchemaStatements create the subset of the Mokka models schema read by the
// exporter. Each statement is executed separately so drivers that reject
// multi-statement batches (MySQL without multiStatements) work too.
var SchemaStatements = []string{
	`CREATE TABLE ingredients (model VARCHAR(255) NOT NULL, sub_detector VARCHAR(255) NOT NULL)`,
	`CREATE TABLE sub_detector (name VARCHAR(255) NOT NULL, driver VARCHAR(255) NOT NULL)`,
	`CREATE TABLE sharing (driver VARCHAR(255) NOT NULL, parameter VARCHAR(255) NOT NULL, driver_default_value VARCHAR(255))`,
	`CREATE TABLE model_parameters (model VARCHAR(255) NOT NULL, parameter VARCHAR(255) NOT NULL, value VARCHAR(255))`,
	`CREATE TABLE parameters (name VARCHAR(255) NOT NULL, default_value VARCHAR(255), description VARCHAR(255))`,
}

// ExecFunc executes one statement. It adapts *sql.DB.ExecContext and
// pgxpool.Pool.Exec, whose return types differ.
type ExecFunc func(ctx context.Context, query string, args ...any) error

type row struct {
	table  string
	values []any
}

// ModelsFixtureBuilder provides a fluent API for populating a models database.
//
// Example usage:
//
//	fixture := NewModelsFixtureBuilder().
//	    AddSubDetector("TPC04", "tpc04").
//	    AddIngredient("ILD_o1_v05", "TPC04").
//	    AddDriverDefault("tpc04", "TPC_outer_radius", "1808*mm").
//	    Build()
type ModelsFixtureBuilder struct {
	rows []row
}

// NewModelsFixtureBuilder creates an empty builder.
func NewModelsFixtureBuilder() *ModelsFixtureBuilder {
	return &ModelsFixtureBuilder{}
}

func (b *ModelsFixtureBuilder) add(table string, values ...any) *ModelsFixtureBuilder {
	b.rows = append(b.rows, row{table: table, values: values})
	return b
}

// AddSubDetector adds a sub_detector row.
func (b *ModelsFixtureBuilder) AddSubDetector(name, driver string) *ModelsFixtureBuilder {
	return b.add("sub_detector", name, driver)
}

// AddIngredient makes subDetector part of model.
func (b *ModelsFixtureBuilder) AddIngredient(model, subDetector string) *ModelsFixtureBuilder {
	return b.add("ingredients", model, subDetector)
}

// AddDriverDefault adds a sharing row. A nil value is stored as NULL.
func (b *ModelsFixtureBuilder) AddDriverDefault(driver, parameter string, value *string) *ModelsFixtureBuilder {
	return b.add("sharing", driver, parameter, nullable(value))
}

// AddModelParameter adds a model_parameters row.
func (b *ModelsFixtureBuilder) AddModelParameter(model, parameter string, value *string) *ModelsFixtureBuilder {
	return b.add("model_parameters", model, parameter, nullable(value))
}

// AddGlobalDefault adds a parameters row.
func (b *ModelsFixtureBuilder) AddGlobalDefault(name string, value *string) *ModelsFixtureBuilder {
	return b.add("parameters", name, nullable(value), "fixture")
}

// Build returns the populated fixture.
func (b *ModelsFixtureBuilder) Build() *ModelsFixture {
	rows := make([]row, len(b.rows))
	copy(rows, b.rows)
	return &ModelsFixture{rows: rows}
}

// ModelsFixture is an immutable set of rows to load into a models database.
type ModelsFixture struct {
	rows []row
}

// Load creates the schema (when createSchema is true) and inserts every row.
// placeholder renders the n-th (1-based) bind parameter, e.g. QuestionMark or Dollar.
func (f *ModelsFixture) Load(ctx context.Context, exec ExecFunc, placeholder func(int) string, createSchema bool) error {
	if createSchema {
		for _, stmt := range SchemaStatements {
			if err := exec(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
	}

	for _, r := range f.rows {
		marks := make([]string, len(r.values))
		for i := range marks {
			marks[i] = placeholder(i + 1)
		}
		query := fmt.Sprintf("INSERT INTO %s VALUES (%s)", r.table, strings.Join(marks, ", "))
		if err := exec(ctx, query, r.values...); err != nil {
			return fmt.Errorf("insert into %s: %w", r.table, err)
		}
	}
	return nil
}

// QuestionMark is the MySQL/DuckDB placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the PostgreSQL placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Str returns a pointer to s for the nullable builder arguments.
func Str(s string) *string { return &s }

func nullable(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// ILDModel is the model name used by ILDFixture.
const ILDModel = "ILD_o1_v05"

// ILDFixture is a small ILD-like models database exercising every resolution
// layer. Resolving ILDModel yields ILDExpected.
func ILDFixture() *ModelsFixture {
	return NewModelsFixtureBuilder().
		AddSubDetector("TPC04", "tpc04").
		AddSubDetector("SEcal05", "SEcal05").
		AddSubDetector("VXD04", "vxd04").
		AddIngredient(ILDModel, "TPC04").
		AddIngredient(ILDModel, "SEcal05").
		AddIngredient("ILD_o2_v05", "VXD04").
		AddDriverDefault("tpc04", "TPC_outer_radius", Str("1808*mm")).
		AddDriverDefault("tpc04", "TPC_inner_radius", Str("329*mm")).
		AddDriverDefault("tpc04", "TPC_electronics_backend_thickness", nil).
		AddDriverDefault("SEcal05", "Ecal_cells_size", Str("5.1*mm")).
		AddDriverDefault("SEcal05", "Ecal_nlayers", Str("")).
		AddDriverDefault("SEcal05", "Ecal_radiator_layers_set1_thickness", nil).
		AddDriverDefault("vxd04", "VXD_inner_radius", Str("16*mm")).
		AddModelParameter(ILDModel, "TPC_outer_radius", Str("1800*mm")).
		AddModelParameter(ILDModel, "Hcal_sensitive_model", Str("scintillator")).
		AddModelParameter(ILDModel, "Ecal_cells_size", nil).
		AddModelParameter("ILD_o2_v05", "VXD_inner_radius", Str("15*mm")).
		AddGlobalDefault("TPC_electronics_backend_thickness", Str("0.5*mm")).
		AddGlobalDefault("Ecal_nlayers", Str("30")).
		AddGlobalDefault("Ecal_cells_size", Str("5.0*mm")).
		AddGlobalDefault("TPC_outer_radius", Str("2000*mm")).
		Build()
}

// ILDExpected is the resolved, sorted output for ILDModel, rendered as the
// constant lines of the export file.
var ILDExpected = []string{
	`<constant name="Ecal_cells_size" value="5.0*mm"/>`,
	`<constant name="Ecal_nlayers" value="30"/>`,
	`<constant name="Ecal_radiator_layers_set1_thickness" value="None"/>`,
	`<constant name="Hcal_sensitive_model" value="scintillator"/>`,
	`<constant name="TPC_electronics_backend_thickness" value="0.5*mm"/>`,
	`<constant name="TPC_inner_radius" value="329*mm"/>`,
	`<constant name="TPC_outer_radius" value="1800*mm"/>`,
}
