// Package llmerr normalizes backend failures into a small, fixed taxonomy so
// callers can branch on kind instead of parsing provider-specific payloads.
package llmerr
