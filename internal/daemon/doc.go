// Package daemon coordinates the long-running whetstone process: it owns the
// single-instance lock, gates the prompt operations on running state, tags
// every dispatched request with session and correlation IDs, and assembles
// the status snapshot the CLI renders.
package daemon
