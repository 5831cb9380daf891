// Package logging assembles the structured slog loggers used across
// Whetstone services.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so request code can
// automatically tag log lines with request, session, and operation
// identifiers. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing guarantees as the rest of the
// system.
package logging
