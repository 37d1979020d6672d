// Package mcpserver establishes and owns the channel to an external MCP
// server process.
//
// Includes:
//   - Connect: interpreter selection by script extension, stdio launch,
//     protocol handshake, tool discovery.
//   - ToolParams: MCP tool schema -> Messages API tool format (a pure field
//     rename, no schema transformation).
//   - Invariants: the tool catalog is immutable for the connection lifetime;
//     the channel is owned exclusively and closed at most once.
package mcpserver
