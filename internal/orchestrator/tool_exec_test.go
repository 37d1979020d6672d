package orchestrator_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/petasbytes/mcp-bridge/internal/orchestrator"
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

func readEventLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(".bridge/events.jsonl")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestResolve_EmitsToolExecEvent(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BRIDGE_OBSERVE_JSON", "1")

	fake := &fakeTransport{responses: [][]byte{
		[]byte(`{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"web_search","input":{"query":"x"}}]}`),
		[]byte(`{"role":"assistant","content":[{"type":"text","text":"done"}]}`),
	}}
	channel := &fakeChannel{result: textResult(t, "ok")}
	o := orchestrator.New(newClientWithTransport(fake), "claude-test-model", channel, searchCatalog())

	_ = o.Resolve(context.Background(), "search x")

	var exec map[string]any
	for _, line := range readEventLines(t) {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if m["event"] == "tool_exec" {
			exec = m
		}
	}
	if exec == nil {
		t.Fatal("no tool_exec event found")
	}
	if exec["tool_name"] != "web_search" {
		t.Errorf("tool_name: want web_search, got %v", exec["tool_name"])
	}
	if v, ok := exec["duration_ms"].(float64); !ok || v < 0 {
		t.Errorf("duration_ms should be >= 0, got %v", exec["duration_ms"])
	}
	if _, ok := exec["query_id"]; !ok {
		t.Error("missing query_id field")
	}
	if exec["error"] != nil {
		t.Errorf("error should be null on success, got %v", exec["error"])
	}
}
