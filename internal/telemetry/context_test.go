package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/petasbytes/mcp-bridge/internal/telemetry"
)

func TestQueryID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithQueryID(context.Background(), "query-123")
	got, ok := telemetry.QueryIDFromContext(ctx)
	if !ok || got != "query-123" {
		t.Fatalf("want query-123,true; got %q,%v", got, ok)
	}
}

func TestQueryID_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithQueryID(context.Background(), "")
	got, ok := telemetry.QueryIDFromContext(ctx)
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestQueryID_MissingValue(t *testing.T) {
	got, ok := telemetry.QueryIDFromContext(context.Background())
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestQueryID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	child := telemetry.WithQueryID(parent, "q1")

	cancel()

	select {
	case <-child.Done():
		// ok
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}
