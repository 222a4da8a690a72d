package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	tsse "github.com/Tangerg/lynx/sse"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/evalgo-org/grafo-query/gateway"
)

const protocolVersion = "2024-11-05"

// Server is the SSE transport's session registry and JSON-RPC dispatcher. It
// wraps a single *gateway.Gateway and fans every session's tool calls
// through it, bound to the graph version its stream was opened with (the
// ?version= query parameter, or the default version).
type Server struct {
	gateway        *gateway.Gateway
	defaultVersion string
	log            *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*session

	encoder *tsse.Encoder
}

// New wires a transport Server to a tool gateway. defaultVersion is used
// when a client opens /sse without a version query parameter.
func New(gw *gateway.Gateway, defaultVersion string, log *logrus.Logger) *Server {
	return &Server{
		gateway:        gw,
		defaultVersion: defaultVersion,
		log:            log,
		sessions:       make(map[string]*session),
		encoder:        tsse.NewEncoder(),
	}
}

// HandleStream serves GET /sse: opens a long-lived event stream and
// immediately announces this session's POST endpoint via the "endpoint"
// event, per the legacy MCP HTTP+SSE transport.
func (s *Server) HandleStream(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	version := c.QueryParam("version")
	if version == "" {
		version = s.defaultVersion
	}

	id := uuid.NewString()
	sess := newSession(id)
	sess.setVersion(version)
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	defer s.removeSession(id)

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := s.writeEvent(w, flusher, tsse.Message{Event: "endpoint", Data: []byte("/messages?sessionId=" + id)}); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	keepalive := time.NewTicker(20 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			sess.close()
			return nil
		case <-sess.closed:
			return nil
		case <-keepalive.C:
			if _, err := w.Write([]byte(":keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		case msg := <-sess.outbound:
			if err := s.writeEvent(w, flusher, msg); err != nil {
				return nil
			}
		}
	}
}

func (s *Server) writeEvent(w *echo.Response, flusher http.Flusher, msg tsse.Message) error {
	raw, err := s.encoder.Encode(&msg)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).Warn("sse encode failed")
		}
		return nil
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// HandleMessage serves POST /messages?sessionId=...: decodes one JSON-RPC
// request, dispatches it, and delivers the response over the matching
// session's SSE stream. The POST response body is empty; only its status
// code reports whether the request was accepted.
func (s *Server) HandleMessage(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	sess, ok := s.session(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}

	var req Request
	if err := json.NewDecoder(bufio.NewReader(c.Request().Body)).Decode(&req); err != nil {
		sess.send(asMessage(errorResponse(nil, ErrParse, "invalid JSON-RPC request")))
		return c.NoContent(http.StatusAccepted)
	}

	resp := s.dispatch(sess, req)
	sess.send(asMessage(resp))
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) dispatch(sess *session, req Request) Response {
	switch req.Method {
	case "initialize":
		return result(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: "grafo-query", Version: protocolVersion},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})

	case "tools/list":
		return result(req.ID, map[string]any{"tools": s.gateway.Tools()})

	case "tools/call":
		version := sess.getVersion()
		if version == "" {
			return errorResponse(req.ID, ErrInvalidRequest, "session not initialized")
		}
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return errorResponse(req.ID, ErrInvalidParams, "name is required")
		}
		text := s.gateway.Call(context.Background(), version, params.Name, params.Arguments)
		return result(req.ID, textResult(text))

	default:
		return errorResponse(req.ID, ErrMethodNotFound, "unknown method: "+req.Method)
	}
}

func asMessage(resp Response) tsse.Message {
	data, _ := json.Marshal(resp)
	return tsse.Message{Event: "message", Data: data}
}
