// Package stunserver implements the UDP binding server: one receiver goroutine
// dispatching datagrams to a fixed worker pool via a bounded queue, with the
// socket shared for concurrent sends.
package stunserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"runtime"
	"sync"

	"github.com/saintparish4/altair/internal/stun"
)

// DefaultPort is the conventional STUN binding-server UDP port.
const DefaultPort = 3478

const (
	// packetBufferSize is the fixed per-packet buffer. STUN binding
	// requests are at most ~48 bytes in practice; longer datagrams are
	// truncated and will usually fail header or cookie validation, which
	// is the desired outcome.
	packetBufferSize = 64

	// defaultQueueCapacity bounds the receiver-to-worker queue.
	defaultQueueCapacity = 1024

	// defaultWorkers is the worker-pool fallback when the runtime cannot
	// report available parallelism.
	defaultWorkers = 4
)

// Config holds STUN server configuration.
type Config struct {
	Addr          string
	Workers       int // 0 selects runtime.GOMAXPROCS(0), or defaultWorkers if that is not positive
	QueueCapacity int // 0 selects defaultQueueCapacity
	Logger        *log.Logger
}

// DefaultConfig returns sensible defaults bound to DefaultPort.
func DefaultConfig() Config {
	return Config{
		Addr:          fmt.Sprintf(":%d", DefaultPort),
		Workers:       0,
		QueueCapacity: defaultQueueCapacity,
		Logger:        log.New(io.Discard, "", 0),
	}
}

// workItem is the unit of work handed from the receiver to a worker.
type workItem struct {
	data       [packetBufferSize]byte
	len        int
	clientAddr *net.UDPAddr
}

// Server is the STUN binding server. One receiver goroutine owns the socket
// for reads; all workers share it for writes, which is safe for UDP sockets.
type Server struct {
	conn    *net.UDPConn
	workers int
	queue   chan workItem
	logger  *log.Logger
}

// Bind resolves and opens the UDP listening socket without starting the
// receive loop.
func Bind(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = fmt.Sprintf(":%d", DefaultPort)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers <= 0 {
			workers = defaultWorkers
		}
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("resolve stun address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind stun socket: %w", err)
	}

	cfg.Logger.Printf("[stun] listening on %s with %d workers", conn.LocalAddr(), workers)

	return &Server{
		conn:    conn,
		workers: workers,
		queue:   make(chan workItem, cfg.QueueCapacity),
		logger:  cfg.Logger,
	}, nil
}

// LocalAddr returns the bound UDP address.
func (s *Server) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close closes the underlying UDP socket, unblocking the receive loop with a
// socket error.
func (s *Server) Close() error {
	return s.conn.Close()
}

// Run starts the worker pool and the receive loop. It blocks until ctx is
// canceled or the socket read fails; a canceled context closes the socket to
// unblock the in-flight read.
func (s *Server) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func(id int) {
			defer wg.Done()
			s.workerLoop(id)
		}(i)
	}

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	err := s.receiveLoop(ctx)

	close(s.queue)
	wg.Wait()
	return err
}

// receiveLoop is the single reader of the UDP socket. It never blocks on
// the worker queue: a full queue drops the datagram and logs a warning,
// since STUN is idempotent and blocking the receiver would accumulate
// kernel socket backlog instead.
func (s *Server) receiveLoop(ctx context.Context) error {
	var buf [packetBufferSize]byte
	for {
		n, addr, err := s.conn.ReadFromUDP(buf[:])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("stun socket receive: %w", err)
		}

		item := workItem{len: n, clientAddr: addr}
		copy(item.data[:], buf[:n])

		select {
		case s.queue <- item:
		default:
			s.logger.Printf("[stun] worker queue full, dropping packet from %s", addr)
		}
	}
}

// workerLoop pops work items and replies to well-formed binding requests.
func (s *Server) workerLoop(id int) {
	for item := range s.queue {
		resp, n, err := handleRequest(item.data[:item.len], item.clientAddr)
		if err != nil {
			s.logger.Printf("[stun] worker %d: request from %s: %v", id, item.clientAddr, err)
			continue
		}
		if _, err := s.conn.WriteToUDP(resp[:n], item.clientAddr); err != nil {
			s.logger.Printf("[stun] worker %d: send to %s failed: %v", id, item.clientAddr, err)
		}
	}
}

// handleRequest parses a datagram, rejects anything that isn't an IPv4
// Binding Request, and builds the corresponding binding response.
func handleRequest(data []byte, clientAddr *net.UDPAddr) (resp [stun.BindingResponseSize]byte, n int, err error) {
	req, err := stun.Parse(data)
	if err != nil {
		return resp, 0, err
	}
	if !req.IsBindingRequest() {
		return resp, 0, &stun.UnsupportedMessageTypeError{Type: req.Type}
	}

	ip4 := clientAddr.IP.To4()
	if ip4 == nil {
		return resp, 0, &stun.Ipv6NotSupportedError{}
	}

	var ipArr [4]byte
	copy(ipArr[:], ip4)

	resp = stun.BuildBindingResponse(req.TransactionID, ipArr, uint16(clientAddr.Port))
	return resp, len(resp), nil
}
