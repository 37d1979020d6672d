package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"

	"github.com/petasbytes/mcp-bridge/internal/telemetry"
)

const maxTokens = 1024

// ToolCaller is the slice of the MCP client the orchestrator needs: one
// invocation call against the already-open channel.
type ToolCaller interface {
	CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams, options ...mcpclient.RequestOption) (*mcpschema.CallToolResult, error)
}

// Orchestrator is the immutable session context for query resolution: the
// model client, the tool channel, and the catalog discovered at connect time.
// It holds no per-query state; each Resolve builds a fresh conversation.
type Orchestrator struct {
	client  *anthropic.Client
	model   anthropic.Model
	channel ToolCaller
	tools   []anthropic.ToolUnionParam
}

func New(client *anthropic.Client, model anthropic.Model, channel ToolCaller, tools []anthropic.ToolUnionParam) *Orchestrator {
	return &Orchestrator{client: client, model: model, channel: channel, tools: tools}
}

// state enumerates the positions of the fixed two-round exchange.
type state int

const (
	stateAwaitingInitialResponse state = iota
	stateExecutingTool
	stateAwaitingFollowup
	stateDone
)

// roundItem is one round-1 content item, kept in response order. Exactly one
// of text or toolUse is set.
type roundItem struct {
	text    string
	toolUse *anthropic.ToolUseBlock
}

// machine carries the working set of one query resolution. The transitions
// encode the protocol bound: followup requests never attach the tool catalog,
// and a followup response can only lead to the next queued round-1 item or to
// done, never to another tool round.
type machine struct {
	state     state
	conv      []anthropic.MessageParam
	queue     []roundItem
	fragments []string
}

// advance emits any text items at the head of the queue and returns the next
// state: stateExecutingTool when a tool item comes up, stateDone when the
// queue is drained. Walking the queue this way keeps output fragments in
// round-1 item order.
func (m *machine) advance() state {
	for len(m.queue) > 0 && m.queue[0].toolUse == nil {
		m.fragments = append(m.fragments, m.queue[0].text)
		m.queue = m.queue[1:]
	}
	if len(m.queue) == 0 {
		return stateDone
	}
	return stateExecutingTool
}

// Resolve runs one query through the two-round protocol and returns the
// combined textual output. It never fails to its caller: any model or channel
// error comes back as an "Error: ..." string so the interactive loop keeps
// running.
func (o *Orchestrator) Resolve(ctx context.Context, query string) string {
	queryID, ok := telemetry.QueryIDFromContext(ctx)
	if !ok {
		queryID = fmt.Sprintf("query-%d", time.Now().UnixNano())
		ctx = telemetry.WithQueryID(ctx, queryID)
	}

	out, err := o.resolve(ctx, query)
	if err != nil {
		telemetry.Emit("query_resolved", map[string]any{"query_id": queryID, "error": err.Error()})
		return "Error: " + err.Error()
	}
	telemetry.Emit("query_resolved", map[string]any{"query_id": queryID, "error": nil})
	return out
}

func (o *Orchestrator) resolve(ctx context.Context, query string) (string, error) {
	m := &machine{
		state: stateAwaitingInitialResponse,
		conv:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(query))},
	}

	for m.state != stateDone {
		switch m.state {
		case stateAwaitingInitialResponse:
			msg, err := o.call(ctx, m.conv, o.tools)
			if err != nil {
				return "", err
			}
			for _, block := range msg.Content {
				switch v := block.AsAny().(type) {
				case anthropic.TextBlock:
					m.queue = append(m.queue, roundItem{text: v.Text})
				case anthropic.ToolUseBlock:
					tu := v
					m.queue = append(m.queue, roundItem{toolUse: &tu})
				}
			}
			m.state = m.advance()

		case stateExecutingTool:
			item := m.queue[0].toolUse
			args := map[string]interface{}{}
			if raw := json.RawMessage(item.JSON.Input.Raw()); len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return "", fmt.Errorf("decode arguments for tool %s: %w", item.Name, err)
				}
			}
			result, err := o.execTool(ctx, item.Name, args)
			if err != nil {
				return "", err
			}
			m.fragments = append(m.fragments, fmt.Sprintf("[Calling tool %s with args %v]", item.Name, args))
			m.conv = append(m.conv, anthropic.NewUserMessage(anthropic.NewTextBlock(result)))
			m.state = stateAwaitingFollowup

		case stateAwaitingFollowup:
			// No tools on the followup request: the model cannot ask for
			// another round.
			msg, err := o.call(ctx, m.conv, nil)
			if err != nil {
				return "", err
			}
			// Only the first content item counts; a non-text followup is
			// dropped rather than executed.
			if len(msg.Content) > 0 {
				if tb, ok := msg.Content[0].AsAny().(anthropic.TextBlock); ok {
					m.fragments = append(m.fragments, tb.Text)
				}
			}
			m.queue = m.queue[1:]
			m.state = m.advance()
		}
	}

	return strings.Join(m.fragments, "\n"), nil
}

// call sends the conversation to the Messages API, attaching tools only when
// the caller supplies them.
func (o *Orchestrator) call(ctx context.Context, conv []anthropic.MessageParam, tools []anthropic.ToolUnionParam) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     o.model,
		MaxTokens: int64(maxTokens),
		Messages:  conv,
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	queryID, _ := telemetry.QueryIDFromContext(ctx)
	telemetry.Emit("model_call", map[string]any{
		"query_id":       queryID,
		"model":          string(o.model),
		"messages":       len(conv),
		"tools_attached": len(tools) > 0,
	})
	return o.client.Messages.New(ctx, params)
}

// execTool invokes a tool over the channel and flattens the result to text.
// The tool name is not validated against the catalog; an unknown name comes
// back as the server's own error.
func (o *Orchestrator) execTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	queryID, _ := telemetry.QueryIDFromContext(ctx)
	start := time.Now()

	result, err := o.channel.CallTool(ctx, &mcpschema.CallToolRequestParams{
		Name:      name,
		Arguments: args,
	})

	fields := map[string]any{
		"query_id":    queryID,
		"tool_name":   name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		// Keep telemetry generic; the detailed error goes to the operator.
		fields["error"] = "tool error"
		telemetry.Emit("tool_exec", fields)
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}
	fields["error"] = nil
	telemetry.Emit("tool_exec", fields)
	return flattenResult(result), nil
}

// flattenResult reduces MCP call content to a single string: empty content
// yields "", a lone text part yields its text, anything else is JSON-encoded.
// Content elements are untyped in the protocol schema, so the text shape is
// recovered by map assertion.
func flattenResult(result *mcpschema.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if len(result.Content) == 1 {
		if part, ok := result.Content[0].(map[string]interface{}); ok && part["type"] == "text" {
			if text, ok := part["text"].(string); ok {
				return text
			}
		}
	}
	data, err := json.Marshal(result.Content)
	if err != nil {
		return ""
	}
	return string(data)
}
