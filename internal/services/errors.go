package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrBackend       = errors.New("backend failure")
	ErrRateLimited   = errors.New("rate limited")
	ErrAuth          = errors.New("authentication failure")
	ErrTimeout       = errors.New("timeout")
	ErrParse         = errors.New("parse failure")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrBackend
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
