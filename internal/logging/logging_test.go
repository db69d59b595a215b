package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestFromContextWithoutLogger(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil logger, got %v", got)
	}
}

func TestContextWithLoggerRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected the attached logger back, got %v", got)
	}
}

func TestContextWithLoggerNilLogger(t *testing.T) {
	ctx := context.Background()
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatal("expected nil logger to leave the context untouched")
	}
	if got := FromContext(ContextWithLogger(ctx, nil)); got != nil {
		t.Fatalf("expected nil logger, got %v", got)
	}
}
