package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/viant/mcp"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"

	"github.com/petasbytes/mcp-bridge/internal/config"
	"github.com/petasbytes/mcp-bridge/internal/telemetry"
)

// ConnectError reports a failure while establishing the tool-process channel.
// Stage is one of "script", "start", "discovery".
type ConnectError struct {
	Stage string
	Err   error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("connect (%s): %v", e.Stage, e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// Server owns the channel to a running MCP server process together with the
// tool catalog discovered on it. The catalog is fixed for the lifetime of the
// connection.
type Server struct {
	client  mcpclient.Interface
	catalog []mcpschema.Tool
	params  []anthropic.ToolUnionParam
	closed  bool
}

// interpreterFor maps a server script path to the command that runs it.
// Exactly two extensions are supported: .js runs under node, .py under the
// platform's python.
func interpreterFor(scriptPath string) (string, error) {
	switch filepath.Ext(scriptPath) {
	case ".py":
		if runtime.GOOS == "windows" {
			return "python", nil
		}
		return "python3", nil
	case ".js":
		return "node", nil
	default:
		return "", fmt.Errorf("server script must be a .py or .js file, got %q", scriptPath)
	}
}

// Connect launches the MCP server script as a child process over stdio and
// retrieves the tool catalog. The child inherits the current process
// environment plus the model selection from cfg.
func Connect(ctx context.Context, cfg config.Config, scriptPath string) (*Server, error) {
	command, err := interpreterFor(scriptPath)
	if err != nil {
		return nil, &ConnectError{Stage: "script", Err: err}
	}

	// The stdio transport spawns the child with this process's environment,
	// so exporting the model around the spawn is what propagates it to the
	// tool process. The override is restored once the child is running.
	restore, err := exportModelEnv(cfg.Model)
	if err != nil {
		return nil, &ConnectError{Stage: "start", Err: err}
	}

	options := &mcp.ClientOptions{
		Name: "mcp-bridge",
		Transport: mcp.ClientTransport{
			Type: "stdio",
			ClientTransportStdio: mcp.ClientTransportStdio{
				Command:   command,
				Arguments: []string{scriptPath},
			},
		},
	}
	// NewClient spawns the child and performs the protocol handshake; the
	// handshake is one-shot, so no further initialize call is made here.
	client, err := mcp.NewClient(nil, options)
	restore()
	if err != nil {
		return nil, &ConnectError{Stage: "start", Err: err}
	}

	return setup(ctx, client, scriptPath)
}

// exportModelEnv sets the model variable for the child spawn and returns a
// func restoring the previous value, so the override never outlives Connect.
func exportModelEnv(model string) (restore func(), err error) {
	prev, had := os.LookupEnv(config.ModelEnv)
	if err := os.Setenv(config.ModelEnv, model); err != nil {
		return nil, err
	}
	return func() {
		if had {
			_ = os.Setenv(config.ModelEnv, prev)
		} else {
			_ = os.Unsetenv(config.ModelEnv)
		}
	}, nil
}

// setup retrieves the catalog from an already-initialised client and
// assembles the session handle.
func setup(ctx context.Context, client mcpclient.Interface, scriptPath string) (*Server, error) {
	catalog, err := listAllTools(ctx, client)
	if err != nil {
		return nil, &ConnectError{Stage: "discovery", Err: err}
	}

	s := &Server{client: client, catalog: catalog, params: ToolParams(catalog)}
	ancli.PrintOK(fmt.Sprintf("connected to server with tools: %v\n", s.ToolNames()))
	telemetry.Emit("tools_discovered", map[string]any{
		"script": scriptPath,
		"count":  len(catalog),
		"tools":  s.ToolNames(),
	})
	return s, nil
}

// listAllTools walks every discovery page.
func listAllTools(ctx context.Context, client mcpclient.Interface) ([]mcpschema.Tool, error) {
	var out []mcpschema.Tool
	var cursor *string
	for {
		result, err := client.ListTools(ctx, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, result.Tools...)
		if result.NextCursor == nil || *result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return out, nil
}

// ToolNames returns the discovered tool names in discovery order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.catalog))
	for _, t := range s.catalog {
		names = append(names, t.Name)
	}
	return names
}

// Catalog returns the tool catalog in the form the Messages API expects.
func (s *Server) Catalog() []anthropic.ToolUnionParam {
	return s.params
}

// CallTool executes a named tool on the server. The name is passed through
// as-is; an unknown name surfaces as whatever error the server returns.
func (s *Server) CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams, options ...mcpclient.RequestOption) (*mcpschema.CallToolResult, error) {
	return s.client.CallTool(ctx, params, options...)
}

// Close releases the tool-process channel. Calling it more than once is a
// no-op. The client interface exposes no closer; when the concrete transport
// implements io.Closer it is closed, otherwise dropping the reference on
// process exit is all that can be done.
func (s *Server) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
