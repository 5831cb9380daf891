// Package api defines wire-format types shared by the IPC server, the IPC
// client, and the CLI renderers. It translates operation results and daemon
// state into transport-friendly DTOs so the socket protocol stays decoupled
// from internal types.
//
// Failures cross the socket as ErrorInfo rather than flattened RPC error
// strings, so the client can rebuild an error that still answers errors.Is
// against the services taxonomy markers and still carries the recovery hint.
package api
