// Package llm executes generation requests against a configured backend.
//
// The package owns the retry loop: each request runs under a per-attempt
// timeout and a total wall-clock budget, transient failures back off with
// equal jitter between attempts, and every terminal failure crosses the
// package boundary as a classified error. Structured calls additionally
// recover JSON from noisy model output and may issue one reinforced retry
// when recovery fails.
//
// The backend adapter is constructed lazily on first use and memoized for
// the life of the process; a construction failure leaves the slot empty so a
// later request can retry once credentials are available.
package llm
