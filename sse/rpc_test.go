package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestUnmarshalsToolsCall(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_code","arguments":{"query":"ProcessMessage"}}}`
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.Equal(t, "tools/call", req.Method)

	var params toolsCallParams
	require.NoError(t, json.Unmarshal(req.Params, &params))
	assert.Equal(t, "search_code", params.Name)
	assert.Equal(t, "ProcessMessage", params.Arguments["query"])
}

func TestResultResponseRoundTrips(t *testing.T) {
	id := json.RawMessage(`7`)
	resp := result(id, textResult("## hi"))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jsonrpc":"2.0"`)
	assert.Contains(t, string(data), `"id":7`)
	assert.Contains(t, string(data), `"text":"## hi"`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestErrorResponseCarriesCodeAndMessage(t *testing.T) {
	id := json.RawMessage(`"abc"`)
	resp := errorResponse(id, ErrMethodNotFound, "unknown method")
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":-32601`)
	assert.Contains(t, string(data), `"unknown method"`)
	assert.NotContains(t, string(data), `"result"`)
}

func TestTextResultWrapsSingleContentBlock(t *testing.T) {
	tr := textResult("body")
	require.Len(t, tr.Content, 1)
	assert.Equal(t, "text", tr.Content[0].Type)
	assert.Equal(t, "body", tr.Content[0].Text)
	assert.False(t, tr.IsError)
}
