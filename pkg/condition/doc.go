// Package condition evaluates a single display condition against a snapshot of
// external state.
//
// Evaluation is a pure function of (condition, snapshot): the snapshot supplies entity
// states, the clock and template results, so every decision within one rendering pass
// observes the same world. Anything that cannot be evaluated confidently resolves to
// false (fail-closed) and is logged, never returned as an error.
package condition
