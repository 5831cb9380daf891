// Package providers adapts generic generation calls to each supported
// backend's wire protocol.
//
// Every backend is a value implementing the same three-step capability set:
// BuildRequest shapes the HTTP request, Invoke performs it, and ExtractText
// pulls generated text out of the response. Adapters carry no retry logic;
// callers own attempt budgets, timeouts, and cancellation, and receive raw
// typed failures (StatusError, EmptyContentError, SafetyBlockedError) to
// classify as they see fit.
package providers
