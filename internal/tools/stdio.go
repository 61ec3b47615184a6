package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes used by the gateway.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// StdioServer answers the tool-invocation protocol line by line on a
// stream pair, one JSON-RPC message per line. Logs stay on stderr so the
// protocol stream remains clean.
type StdioServer struct {
	registry *Registry
	name     string
	version  string
}

func NewStdioServer(registry *Registry, name, version string) *StdioServer {
	return &StdioServer{registry: registry, name: name, version: version}
}

// Serve reads requests until EOF or context cancellation.
func (s *StdioServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(out)

	log.WithField("tools", s.registry.Len()).Info("tool gateway listening on stdio")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			_ = encoder.Encode(rpcResponse{
				JSONRPC: "2.0",
				Error:   &rpcError{Code: codeParseError, Message: "parse error"},
			})
			continue
		}

		resp := s.handle(ctx, &req)
		if resp == nil {
			continue // notification, nothing to send back
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	return scanner.Err()
}

func (s *StdioServer) handle(ctx context.Context, req *rpcRequest) *rpcResponse {
	// Notifications carry no id and get no response.
	if req.ID == nil {
		return nil
	}

	resp := &rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		}

	case "ping":
		resp.Result = map[string]interface{}{}

	case "tools/list":
		resp.Result = map[string]interface{}{"tools": s.registry.Defs()}

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: "invalid tool call params"}
			break
		}

		text, err := s.registry.Execute(ctx, params.Name, params.Arguments)
		if err != nil {
			// Tool failures travel as result content, not protocol errors,
			// so the agent can read them.
			resp.Result = callResult{
				Content: []textContent{{Type: "text", Text: err.Error()}},
				IsError: true,
			}
			break
		}
		resp.Result = callResult{Content: []textContent{{Type: "text", Text: text}}}

	case "resources/subscribe", "notifications/subscribe":
		// Streaming subscriptions are not implemented; the stub keeps
		// clients that probe for them working.
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "subscriptions not supported"}

	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}

	return resp
}
