// Package services defines shared utilities consumed across the request
// pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp request, session, and operation identifiers
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent between the engine, the daemon, and the CLI.
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the system.
package services
