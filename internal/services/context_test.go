package services_test

import (
	"context"
	"testing"

	"whetstone/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithSessionID(ctx, "sess-9")
	ctx = services.WithOperation(ctx, "refine")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if sid, ok := services.SessionIDFromContext(ctx); !ok || sid != "sess-9" {
		t.Fatalf("unexpected session id: %v %v", sid, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "refine" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
}

func TestBlankAnnotationsPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "")
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
