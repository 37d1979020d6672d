package telemetry_test

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/petasbytes/mcp-bridge/internal/telemetry"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return tmpDir
}

func TestEmit_Gating(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BRIDGE_OBSERVE_JSON", "0")

	telemetry.Emit("test_event", map[string]any{"foo": "bar"})

	if _, err := os.Stat(".bridge/events.jsonl"); !os.IsNotExist(err) {
		t.Fatalf("expected no events file with gating off, stat err=%v", err)
	}
}

func TestEmit_HappyPath(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BRIDGE_OBSERVE_JSON", "1")

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	data, err := os.ReadFile(".bridge/events.jsonl")
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}

	// Should be exactly one line
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected num=42, got %v", event["num"])
	}
	if _, ok := event["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestEmit_AppendsAcrossCalls(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BRIDGE_OBSERVE_JSON", "1")

	telemetry.Emit("first", nil)
	telemetry.Emit("second", map[string]any{"k": "v"})

	data, err := os.ReadFile(".bridge/events.jsonl")
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}
