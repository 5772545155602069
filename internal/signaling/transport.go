package signaling

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn abstracts a text-framed duplex connection for testability. A
// *websocket.Conn already satisfies this.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() remoteAddr
}

// remoteAddr is the subset of net.Addr the handler needs; satisfied by
// net.Addr directly.
type remoteAddr interface {
	String() string
}

const (
	textMessage = websocket.TextMessage
	pingMessage = websocket.PingMessage
)

// Upgrader abstracts the HTTP-to-WebSocket handshake so the handler does
// not depend on gorilla/websocket directly.
type Upgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (Conn, error)
}

// gorillaUpgrader adapts websocket.Upgrader to Upgrader.
type gorillaUpgrader struct {
	upgrader websocket.Upgrader
}

// NewUpgrader returns the production Upgrader backed by gorilla/websocket,
// permissive about origin since the signaling protocol carries no
// authentication.
func NewUpgrader() Upgrader {
	return &gorillaUpgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (g *gorillaUpgrader) Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (Conn, error) {
	conn, err := g.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		return nil, err
	}
	return &gorillaConn{conn: conn}, nil
}

// gorillaConn wraps *websocket.Conn to satisfy Conn's RemoteAddr signature
// (net.Addr already satisfies remoteAddr structurally, but wrapping keeps
// the seam explicit and testable).
type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) WriteMessage(messageType int, data []byte) error { return c.conn.WriteMessage(messageType, data) }
func (c *gorillaConn) ReadMessage() (int, []byte, error)               { return c.conn.ReadMessage() }
func (c *gorillaConn) Close() error                                    { return c.conn.Close() }
func (c *gorillaConn) SetWriteDeadline(t time.Time) error              { return c.conn.SetWriteDeadline(t) }
func (c *gorillaConn) SetReadDeadline(t time.Time) error               { return c.conn.SetReadDeadline(t) }
func (c *gorillaConn) SetReadLimit(limit int64)                        { c.conn.SetReadLimit(limit) }
func (c *gorillaConn) SetPongHandler(h func(string) error)             { c.conn.SetPongHandler(h) }
func (c *gorillaConn) RemoteAddr() remoteAddr                          { return c.conn.RemoteAddr() }
