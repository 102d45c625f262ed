package store

import (
	"strconv"
	"strings"
)

// Queries are written with '?' placeholders; PostgreSQL variants are derived
// with dollarPlaceholders.
const (
	driverDefaultsQuery = `SELECT sub_detector.driver, sharing.parameter, sharing.driver_default_value
FROM ingredients, sub_detector, sharing
WHERE ingredients.model = ?
  AND ingredients.sub_detector = sub_detector.name
  AND sharing.driver = sub_detector.driver`

	// model_parameters is read positionally: column 2 is the parameter name,
	// column 3 its value.
	modelOverridesQuery = `SELECT * FROM model_parameters WHERE model = ?`

	globalDefaultsQuery = `SELECT name, default_value FROM parameters WHERE name = ?`
)

const (
	overrideNameColumn  = 1
	overrideValueColumn = 2
)

// dollarPlaceholders rewrites each '?' as $1, $2, ... for PostgreSQL.
// The queries above contain no string literals, so every '?' is a placeholder.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
