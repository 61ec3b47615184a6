package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return &funcTool{
		name:        name,
		description: "echoes the blocks argument",
		schema:      map[string]interface{}{"type": "object"},
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return fmt.Sprintf("blocks=%d", intArg(args, "blocks", 5)), nil
		},
	}
}

func failingTool(name string) Tool {
	return &funcTool{
		name:        name,
		description: "always fails",
		schema:      map[string]interface{}{"type": "object"},
		call: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return "", errors.New("chain unreachable")
		},
	}
}

func TestRegistryOrderAndDispatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("b_tool"))
	reg.Register(echoTool("a_tool"))
	reg.Register(echoTool("a_tool")) // re-register keeps the original slot

	assert.Equal(t, 2, reg.Len())

	defs := reg.Defs()
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Name)
	assert.Equal(t, "a_tool", defs[1].Name)

	out, err := reg.Execute(context.Background(), "b_tool", map[string]interface{}{"blocks": float64(9)})
	require.NoError(t, err)
	assert.Equal(t, "blocks=9", out)

	_, err = reg.Execute(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"blocks":    float64(7),
		"threshold": float64(2.5),
		"bogus":     "nope",
	}

	assert.Equal(t, 7, intArg(args, "blocks", 5))
	assert.Equal(t, 5, intArg(args, "absent", 5))
	assert.Equal(t, 5, intArg(args, "bogus", 5))
	assert.Equal(t, 2.5, floatArg(args, "threshold", 100))
	assert.Equal(t, 100.0, floatArg(args, "absent", 100))
}

// serve runs one request line through the server and decodes the response.
func serve(t *testing.T, reg *Registry, line string) rpcResponse {
	t.Helper()

	var out bytes.Buffer
	srv := NewStdioServer(reg, "chainlens", "test")
	require.NoError(t, srv.Serve(context.Background(), strings.NewReader(line+"\n"), &out))

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return resp
}

func TestStdioInitialize(t *testing.T) {
	resp := serve(t, NewRegistry(), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, protocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "chainlens", info["name"])
}

func TestStdioToolsList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("get_network_stats"))

	resp := serve(t, reg, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]interface{})
	require.Len(t, tools, 1)
	def := tools[0].(map[string]interface{})
	assert.Equal(t, "get_network_stats", def["name"])
	assert.NotEmpty(t, def["inputSchema"])
}

func TestStdioToolsCall(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("analyze"))

	resp := serve(t, reg, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"analyze","arguments":{"blocks":3}}}`)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]interface{})
	require.Len(t, content, 1)
	text := content[0].(map[string]interface{})
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "blocks=3", text["text"])
	assert.Nil(t, result["isError"])
}

func TestStdioToolFailureIsResultNotError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(failingTool("broken"))

	resp := serve(t, reg, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"broken"}}`)

	// A tool failure travels as isError content so the agent can read it.
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]interface{})
	text := content[0].(map[string]interface{})
	assert.Equal(t, "chain unreachable", text["text"])
}

func TestStdioUnknownToolCall(t *testing.T) {
	resp := serve(t, NewRegistry(), `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope"}}`)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, true, result["isError"])
}

func TestStdioInvalidParams(t *testing.T) {
	resp := serve(t, NewRegistry(), `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{}}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestStdioMethodNotFound(t *testing.T) {
	resp := serve(t, NewRegistry(), `{"jsonrpc":"2.0","id":7,"method":"resources/subscribe"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)

	resp = serve(t, NewRegistry(), `{"jsonrpc":"2.0","id":8,"method":"no/such/method"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestStdioParseError(t *testing.T) {
	resp := serve(t, NewRegistry(), `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)
}

func TestStdioNotificationGetsNoResponse(t *testing.T) {
	var out bytes.Buffer
	srv := NewStdioServer(NewRegistry(), "chainlens", "test")
	input := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":9,"method":"ping"}` + "\n"
	require.NoError(t, srv.Serve(context.Background(), strings.NewReader(input), &out))

	// Only the ping produces output.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	assert.Equal(t, json.RawMessage("9"), resp.ID)
	assert.Nil(t, resp.Error)
}
