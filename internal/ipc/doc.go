// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. The
// server embeds the daemon; operation failures cross the socket as
// api.ErrorInfo payloads rather than RPC error strings, so the client can
// rebuild classified errors with their kinds and hints intact.
//
// Reuse these types when adding new RPC endpoints to keep the protocol
// stable and compatible with existing command implementations.
package ipc
