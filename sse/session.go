package sse

import (
	"sync"

	tsse "github.com/Tangerg/lynx/sse"
)

// session holds one open SSE connection: its outbound event queue and the
// graph version bound to it when the stream opens. Sessions are short-lived,
// process-local, and never persisted.
type session struct {
	id         string
	mu         sync.RWMutex
	version    string
	outbound   chan tsse.Message
	closed     chan struct{}
	closeOnce  sync.Once
}

func newSession(id string) *session {
	return &session{
		id:       id,
		outbound: make(chan tsse.Message, 32),
		closed:   make(chan struct{}),
	}
}

func (s *session) setVersion(v string) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

func (s *session) getVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// send enqueues an event for delivery over the SSE stream. It never blocks
// indefinitely: a session whose reader has gone away is torn down instead of
// backing up writers.
func (s *session) send(msg tsse.Message) {
	select {
	case s.outbound <- msg:
	case <-s.closed:
	default:
		s.close()
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.closed) })
}
