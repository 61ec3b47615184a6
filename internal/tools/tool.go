// Package tools exposes the analytics façade as named tool calls over the
// JSON-RPC 2.0 tool-invocation convention consumed by AI agents
// (initialize, tools/list, tools/call on stdio). The protocol is fixed and
// consumed as-is; this package only implements the server side of it.
package tools

import "context"

// Tool is one callable operation. InputSchema is a JSON-schema map handed
// verbatim to the agent so it knows how to call the tool.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolDef is the wire form of a tool in tools/list responses.
type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func toDef(t Tool) ToolDef {
	return ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}

// funcTool adapts a plain function to the Tool interface; all the
// analytics tools are built this way.
type funcTool struct {
	name        string
	description string
	schema      map[string]interface{}
	call        func(ctx context.Context, args map[string]interface{}) (string, error)
}

func (t *funcTool) Name() string                        { return t.name }
func (t *funcTool) Description() string                 { return t.description }
func (t *funcTool) InputSchema() map[string]interface{} { return t.schema }
func (t *funcTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	return t.call(ctx, args)
}

// intArg reads an integer argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

func floatArg(args map[string]interface{}, key string, def float64) float64 {
	if v, ok := args[key]; ok {
		if n, ok := v.(float64); ok {
			return n
		}
	}
	return def
}
