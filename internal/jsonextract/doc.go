// Package jsonextract recovers structured JSON from model output that may
// wrap it in code fences or surrounding prose.
package jsonextract
