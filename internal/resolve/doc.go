// Package resolve computes the effective parameter set of a detector model.
//
// Values are layered: driver defaults of every sub-detector in the model,
// then model-specific overrides, then, for values that are still falsy,
// the global parameter defaults. Later rows win within a layer.
//
// Merge is pure. Resolve adds the fallback step through a FallbackLookup so
// it can run against a database or an in-memory table alike.
package resolve
