// Package telemetry provides a minimal JSONL event sink for observing
// bridge behaviour (connection, model calls, tool executions).
//
// Emission is opt-in via BRIDGE_OBSERVE_JSON=1; events land in
// .bridge/events.jsonl relative to the working directory. Query IDs are
// carried on the context so events from one resolution correlate.
package telemetry
