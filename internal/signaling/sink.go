package signaling

import "sync"

// outboundCapacity bounds the per-connection outbound queue. Capacity is
// memory, not a design limit: these queues are conceptually unbounded and
// this is a soft cap as a hardening extension point for adversarial
// clients.
const outboundCapacity = 4096

// outboundQueue is a single peer's outbound frame queue: one or more
// producers (the room manager actor broadcasting, the connection handler
// replying directly) and one consumer (the connection's send-half
// goroutine). Send is non-blocking and silently drops on a full or closed
// queue, matching the actor's broadcast-reliability contract.
type outboundQueue struct {
	mu      sync.Mutex
	ch      chan []byte
	control chan struct{}
	closed  bool
}

// controlCapacity only ever needs to hold one outstanding ping; the
// liveness loop never arms a second one before the first is answered or
// the connection is dropped.
const controlCapacity = 1

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{
		ch:      make(chan []byte, outboundCapacity),
		control: make(chan struct{}, controlCapacity),
	}
}

// Send enqueues data without blocking. It reports whether the frame was
// accepted; false means the queue was full or already closed, and the
// caller has no corrective action to take — the peer is disconnecting or
// already gone.
func (q *outboundQueue) Send(data []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- data:
		return true
	default:
		return false
	}
}

// Close marks the queue closed and closes the underlying channel so the
// send-half's range loop terminates. Safe to call more than once.
func (q *outboundQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	close(q.control)
}

// Frames returns the receive side for the send-half goroutine to range
// over.
func (q *outboundQueue) Frames() <-chan []byte {
	return q.ch
}
