package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// FallbackLookup returns the global default rows for a parameter name.
// mokka.ParameterSource satisfies it.
type FallbackLookup interface {
	GlobalDefaults(ctx context.Context, name string) ([]mokka.Value, error)
}

// Result is the outcome of Resolve.
type Result struct {
	// Parameters sorted ascending by name.
	Parameters []mokka.Parameter

	// FromFallback counts values taken from the global defaults.
	FromFallback int

	// Unresolved counts values still falsy after the fallback step.
	Unresolved int
}

// Merge seeds a mapping from driver defaults and applies overrides on top.
// Within each slice a later row for the same parameter replaces an earlier one.
func Merge(defaults []mokka.DriverDefault, overrides []mokka.Override) map[string]mokka.Value {
	params := make(map[string]mokka.Value, len(defaults)+len(overrides))
	for _, d := range defaults {
		params[d.Parameter] = d.Value
	}
	for _, o := range overrides {
		params[o.Parameter] = o.Value
	}
	return params
}

// SortedNames returns the keys of params in byte-wise ascending order.
func SortedNames(params map[string]mokka.Value) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve merges defaults and overrides, then replaces every falsy value
// with the last global default row for its name. A falsy value without any
// global default row is kept as is.
//
// Lookups run in name order, one per falsy parameter.
func Resolve(ctx context.Context, defaults []mokka.DriverDefault, overrides []mokka.Override, lookup FallbackLookup) (*Result, error) {
	params := Merge(defaults, overrides)
	names := SortedNames(params)

	result := &Result{Parameters: make([]mokka.Parameter, 0, len(names))}
	for _, name := range names {
		value := params[name]
		if value.IsFalsy() {
			rows, err := lookup.GlobalDefaults(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("fallback for %s: %w", name, err)
			}
			if len(rows) > 0 {
				value = rows[len(rows)-1]
				result.FromFallback++
			}
			if value.IsFalsy() {
				result.Unresolved++
			}
		}
		result.Parameters = append(result.Parameters, mokka.Parameter{Name: name, Value: value})
	}
	return result, nil
}

// Table is an in-memory FallbackLookup keyed by parameter name.
type Table map[string][]mokka.Value

func (t Table) GlobalDefaults(_ context.Context, name string) ([]mokka.Value, error) {
	return t[name], nil
}
