package signaling

import (
	"errors"
	"sync"
	"time"
)

// mockConn is a minimal Conn for driving serveConn without a real socket.
// ReadMessage blocks on an internal channel the way a real connection
// blocks on the kernel, which is what makes it usable against serveConn's
// select loop instead of just its decode path.
type mockConn struct {
	mu     sync.Mutex
	closed bool
	reads  chan []byte
	writes [][]byte
	addr   string

	pongHandler func(string) error
}

type mockAddr string

func (a mockAddr) String() string { return string(a) }

func newMockConn(addr string) *mockConn {
	return &mockConn{reads: make(chan []byte, 16), addr: addr}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	cp := append([]byte(nil), data...)
	m.writes = append(m.writes, cp)
	return nil
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	data, ok := <-m.reads
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return textMessage, data, nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.reads)
	return nil
}

func (m *mockConn) SetWriteDeadline(t time.Time) error     { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadLimit(limit int64)               {}
func (m *mockConn) RemoteAddr() remoteAddr                 { return mockAddr(m.addr) }
func (m *mockConn) SetPongHandler(h func(appData string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pongHandler = h
}

// enqueue pushes an inbound frame; panics if called after Close, which a
// test author controls.
func (m *mockConn) enqueue(data []byte) {
	m.reads <- data
}

func (m *mockConn) written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) simulatePong() {
	m.mu.Lock()
	h := m.pongHandler
	m.mu.Unlock()
	if h != nil {
		h("")
	}
}
