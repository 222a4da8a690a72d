package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo-org/grafo-query/gateway"
)

func newTestServer() *Server {
	return New(gateway.New(nil, nil, nil), "7.10.2", nil)
}

func TestDispatchInitializeAnnouncesProtocolVersion(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(newSession("s1"), Request{Method: "initialize", ID: json.RawMessage("1")})
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), protocolVersion)
}

func TestDispatchToolsListReturnsCatalog(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(newSession("s1"), Request{Method: "tools/list", ID: json.RawMessage("1")})
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "search_code")
}

func TestDispatchUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(newSession("s1"), Request{Method: "nope", ID: json.RawMessage("1")})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrMethodNotFound, resp.Error.Code)
}

func TestDispatchToolsCallWithoutVersionIsInvalidRequest(t *testing.T) {
	s := newTestServer()
	sess := newSession("s1")
	resp := s.dispatch(sess, Request{Method: "tools/call", ID: json.RawMessage("1"), Params: json.RawMessage(`{"name":"search_code"}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidRequest, resp.Error.Code)
}

func TestDispatchToolsCallMissingNameIsInvalidParams(t *testing.T) {
	s := newTestServer()
	sess := newSession("s1")
	sess.setVersion("7.10.2")
	resp := s.dispatch(sess, Request{Method: "tools/call", ID: json.RawMessage("1"), Params: json.RawMessage(`{}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code)
}

func TestDispatchToolsCallUnknownToolRendersErrorAsResult(t *testing.T) {
	s := newTestServer()
	sess := newSession("s1")
	sess.setVersion("7.10.2")
	resp := s.dispatch(sess, Request{Method: "tools/call", ID: json.RawMessage("1"), Params: json.RawMessage(`{"name":"no_such_tool"}`)})
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "unknown tool")
}

func TestAsMessageWrapsResponseAsMessageEvent(t *testing.T) {
	msg := asMessage(result(json.RawMessage("1"), map[string]string{"ok": "yes"}))
	assert.Equal(t, "message", msg.Event)
	assert.Contains(t, string(msg.Data), `"ok":"yes"`)
}
