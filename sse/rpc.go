// Package sse implements the SSE transport: a two-endpoint,
// session-bound JSON-RPC 2.0 surface for the tool gateway, mirroring the
// legacy MCP HTTP+SSE transport — GET /sse opens the event stream and hands
// back a session-scoped POST endpoint; POST /messages carries JSON-RPC
// requests whose responses are written back onto the caller's SSE stream,
// never the POST response body. Wire-format encoding is grounded on
// github.com/Tangerg/lynx/sse; the request/response/error envelope and the
// endpoint/message event split are grounded on
// theRebelliousNerd-codenerd/internal/mcp's SSETransport (its client-side
// counterpart).
package sse

import "encoding/json"

const jsonrpcVersion = "2.0"

// Request is an incoming JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the JSON-RPC 2.0 reply, delivered over the SSE stream.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC error codes, per the spec.
const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

func result(id json.RawMessage, v any) Response {
	return Response{JSONRPC: jsonrpcVersion, ID: id, Result: v}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: jsonrpcVersion, ID: id, Error: &Error{Code: code, Message: message}}
}

// initializeResult announces server capabilities, mirroring
// mcp.MCPCapabilities's shape from the client side of this protocol.
type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      serverInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolsCallParams is the payload of the "tools/call" method.
type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// toolsCallResult wraps a rendered tool response in MCP's content-block shape.
type toolsCallResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(text string) toolsCallResult {
	return toolsCallResult{Content: []contentBlock{{Type: "text", Text: text}}}
}
