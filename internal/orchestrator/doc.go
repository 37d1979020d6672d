// Package orchestrator runs the fixed two-round model/tool protocol for a
// single operator query.
//
// Flow:
//
//	user(query) -> round 1 (with tool catalog) -> per tool_use item:
//	execute tool -> user(result) -> round 2 (no catalog) -> text
//
// Invariants:
//   - each round-1 tool_use item triggers exactly one tool execution and
//     exactly one follow-up model call, in item order;
//   - follow-up requests never carry the tool catalog, so the exchange is
//     structurally bounded at two rounds per tool item;
//   - Resolve never fails to its caller; errors become "Error: ..." strings.
package orchestrator
