package store

import (
	"database/sql"
	"math/big"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// columnValue converts a scanned column to a Value. DECIMAL and NUMERIC
// columns become exact decimals so that zero of any scale is falsy and the
// scale survives formatting.
func columnValue(raw any, databaseType string) mokka.Value {
	switch v := raw.(type) {
	case duckdb.Decimal:
		return mokka.DecimalValue(mokka.NewDecimal(v.Value, -int(v.Scale)))
	case pgtype.Numeric:
		return numericValue(v)
	case []byte:
		if isDecimalType(databaseType) {
			if d, err := mokka.ParseDecimal(string(v)); err == nil {
				return mokka.DecimalValue(d)
			}
		}
	case string:
		if isDecimalType(databaseType) {
			if d, err := mokka.ParseDecimal(v); err == nil {
				return mokka.DecimalValue(d)
			}
		}
	}
	return mokka.NewValue(raw)
}

// isDecimalType matches DECIMAL, DECIMAL(10,3), NUMERIC and UNSIGNED DECIMAL.
func isDecimalType(databaseType string) bool {
	t := strings.ToUpper(databaseType)
	t = strings.TrimPrefix(t, "UNSIGNED ")
	return strings.HasPrefix(t, "DECIMAL") || strings.HasPrefix(t, "NUMERIC")
}

func numericValue(n pgtype.Numeric) mokka.Value {
	switch {
	case !n.Valid:
		return mokka.Null()
	case n.NaN:
		return mokka.DecimalValue(mokka.DecimalNaN())
	case n.InfinityModifier == pgtype.Infinity:
		return mokka.DecimalValue(mokka.DecimalInfinity(false))
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return mokka.DecimalValue(mokka.DecimalInfinity(true))
	}

	// pgx strips trailing zeros of integral values into a positive Exp.
	coefficient, exp := n.Int, int(n.Exp)
	if exp > 0 && coefficient != nil {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
		coefficient = new(big.Int).Mul(coefficient, scale)
		exp = 0
	}
	return mokka.DecimalValue(mokka.NewDecimal(coefficient, exp))
}

// databaseTypes returns the database type name of every result column.
// Drivers that do not report types yield empty names.
func databaseTypes(rows *sql.Rows) ([]string, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cts))
	for i, ct := range cts {
		names[i] = ct.DatabaseTypeName()
	}
	return names, nil
}
