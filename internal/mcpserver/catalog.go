package mcpserver

import (
	"github.com/anthropics/anthropic-sdk-go"
	mcpschema "github.com/viant/mcp-protocol/schema"
)

// ToolParams converts discovered MCP tools to the Messages API tool format.
// This is a field mapping only: the discovered input schema travels under the
// API's input_schema key with its properties and required list untouched.
func ToolParams(catalog []mcpschema.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(catalog))
	for _, t := range catalog {
		description := ""
		if t.Description != nil {
			description = *t.Description
		}
		properties := make(map[string]map[string]interface{}, len(t.InputSchema.Properties))
		for k, v := range t.InputSchema.Properties {
			properties[k] = v
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   t.InputSchema.Required,
			},
		}})
	}
	return out
}
