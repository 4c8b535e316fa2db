// Package pipeline sequences fetch, parse, and upsert for each
// configured symbol and aggregates per-symbol outcomes into a run result.
//
// Per-symbol failures become warnings; they never abort sibling symbols.
// A run fails only when zero rows were written across all symbols.
package pipeline
