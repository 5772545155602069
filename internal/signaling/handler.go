package signaling

import (
	"log"
	"net/http"
	"time"
)

// pingInterval and pongTimeout implement the connection liveness protocol:
// a ping goes out every pingInterval, and a connection that hasn't
// answered with a pong within pongTimeout is dropped.
const (
	pingInterval = 30 * time.Second
	pongTimeout  = 10 * time.Second

	writeWait   = 10 * time.Second
	readLimit   = 32 * 1024
	initialRead = pingInterval + pongTimeout // generous deadline before the first ping goes out
)

// Handler accepts WebSocket upgrades and runs the per-connection protocol:
// inbound demux, an outbound queue, a ping/pong liveness timer, and calls
// into the room manager actor.
type Handler struct {
	rooms    *RoomManager
	upgrader Upgrader
	logger   *log.Logger

	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHandler creates a Handler backed by rooms.
func NewHandler(rooms *RoomManager, upgrader Upgrader, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		rooms:        rooms,
		upgrader:     upgrader,
		logger:       logger,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[signaling] upgrade error: %v", err)
		return
	}
	h.serveConn(conn)
}

// serveConn owns one connection end to end: setup, the cooperative select
// loop over its event sources, and teardown. A reader goroutine feeds
// inbound frames and read errors onto channels, a send-half goroutine owns
// all writes, and this loop arbitrates between them and the liveness
// timers.
func (h *Handler) serveConn(conn Conn) {
	addr := conn.RemoteAddr().String()
	publicAddr := addr

	out := newOutboundQueue()
	sendDone := make(chan struct{})
	go h.sendHalf(conn, out, sendDone)

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(initialRead))

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(initialRead))
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			inbound <- data
		}
	}()

	var currentPeerID PeerId

	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	var pongTimer *time.Timer
	var pongTimerC <-chan time.Time
	awaitingPong := false

loop:
	for {
		select {
		case <-pingTicker.C:
			if awaitingPong {
				h.logger.Printf("[signaling] no pong from %s, disconnecting", addr)
				break loop
			}
			if !out.sendControl() {
				break loop
			}
			awaitingPong = true
			pongTimer = time.NewTimer(h.pongTimeout)
			pongTimerC = pongTimer.C

		case <-pongTimerC:
			h.logger.Printf("[signaling] pong timeout, disconnecting %s", addr)
			break loop

		case <-pongCh:
			awaitingPong = false
			if pongTimer != nil {
				pongTimer.Stop()
			}
			pongTimerC = nil

		case data := <-inbound:
			h.handleFrame(data, out, publicAddr, &currentPeerID)

		case <-readErr:
			break loop
		}
	}

	if currentPeerID != "" {
		h.rooms.Leave(currentPeerID)
	}
	conn.Close()
	out.Close()
	<-sendDone
	h.logger.Printf("[signaling] disconnected %s", addr)
}

// handleFrame decodes a single inbound text frame and dispatches it to the
// room manager based on its type.
func (h *Handler) handleFrame(data []byte, out *outboundQueue, publicAddr string, currentPeerID *PeerId) {
	msg, err := parseClientMessage(data)
	if err != nil {
		out.Send(newErrorMessage("invalid message: " + err.Error()))
		return
	}

	switch msg.Type {
	case clientTypeCreateRoom:
		addr := publicAddr
		code, peerID, err := h.rooms.Create(&addr, out)
		if err != nil {
			out.Send(newErrorMessage(err.Error()))
			return
		}
		*currentPeerID = peerID
		out.Send(newRoomCreatedMessage(code, peerID))

	case clientTypeJoinRoom:
		addr := publicAddr
		code := NewRoomCode(msg.Code)
		peerID, peers, err := h.rooms.Join(code, &addr, out)
		if err != nil {
			out.Send(newErrorMessage(err.Error()))
			return
		}
		*currentPeerID = peerID
		out.Send(newRoomJoinedMessage(code, peerID, peers))

	case clientTypeLeaveRoom:
		if *currentPeerID != "" {
			h.rooms.Leave(*currentPeerID)
			*currentPeerID = ""
		}

	default:
		out.Send(newErrorMessage("unknown message type: " + msg.Type))
	}
}

// sendControl arms a ping frame on the control queue without blocking. It
// shares outboundQueue's closed-guard so it can never panic on a send to a
// queue whose Close already ran.
func (q *outboundQueue) sendControl() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.control <- struct{}{}:
		return true
	default:
		return false
	}
}

// sendHalf is the only goroutine that ever writes to conn. It multiplexes
// the outbound application queue and the control-ping queue onto the wire
// until either is closed or a write fails.
func (h *Handler) sendHalf(conn Conn, out *outboundQueue, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case data, ok := <-out.Frames():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(textMessage, data); err != nil {
				return
			}
		case _, ok := <-out.control:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(pingMessage, nil); err != nil {
				return
			}
		}
	}
}
