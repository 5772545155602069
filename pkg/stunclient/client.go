// Package stunclient performs RFC 5389 Binding discovery against a STUN
// server to learn the caller's public IP and port. It is the
// client-side counterpart to internal/stunserver: the server answers
// Binding Requests, this package sends them. Wire encoding and decoding
// are delegated to internal/stun rather than reimplemented here.
package stunclient

import (
	"crypto/rand"
	"fmt"
	"net"
	"time"

	"github.com/saintparish4/altair/internal/stun"
)

// Endpoint is a discovered public IP and port.
type Endpoint struct {
	IP   string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// Error wraps a failure at a named stage of discovery.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("stunclient %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func newError(op string, err error) error { return &Error{Op: op, Err: err} }

// Client discovers a caller's public endpoint via a single RFC 5389
// Binding Request/Response exchange over UDP.
type Client struct {
	ServerAddr string
	Timeout    time.Duration
}

// NewClient returns a Client against serverAddr with a 5 second default
// timeout.
func NewClient(serverAddr string) *Client {
	return &Client{ServerAddr: serverAddr, Timeout: 5 * time.Second}
}

// Discover sends one Binding Request and decodes the XOR-MAPPED-ADDRESS
// from the reply.
func (c *Client) Discover() (Endpoint, error) {
	serverAddr, err := net.ResolveUDPAddr("udp", c.ServerAddr)
	if err != nil {
		return Endpoint{}, newError("resolve_address", err)
	}

	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		return Endpoint{}, newError("dial", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return Endpoint{}, newError("set_deadline", err)
	}

	var transactionID stun.TransactionID
	if _, err := rand.Read(transactionID[:]); err != nil {
		return Endpoint{}, newError("generate_transaction_id", err)
	}

	req := stun.BuildBindingRequest(transactionID)
	if _, err := conn.Write(req[:]); err != nil {
		return Endpoint{}, newError("send_request", err)
	}

	response := make([]byte, 1500)
	n, err := conn.Read(response)
	if err != nil {
		return Endpoint{}, newError("read_response", err)
	}

	endpoint, err := parseBindingResponse(response[:n], transactionID)
	if err != nil {
		return Endpoint{}, newError("parse_response", err)
	}
	return endpoint, nil
}

func parseBindingResponse(response []byte, transactionID stun.TransactionID) (Endpoint, error) {
	hdr, err := stun.Parse(response)
	if err != nil {
		return Endpoint{}, err
	}
	if hdr.Type != stun.TypeBindingResponse {
		return Endpoint{}, fmt.Errorf("unexpected message type: %s", hdr.Type)
	}
	if hdr.TransactionID != transactionID {
		return Endpoint{}, fmt.Errorf("transaction id mismatch")
	}
	if len(response) < stun.HeaderSize+int(hdr.Length) {
		return Endpoint{}, fmt.Errorf("incomplete message: got %d bytes, expected %d", len(response), stun.HeaderSize+int(hdr.Length))
	}

	attrs := response[stun.HeaderSize : stun.HeaderSize+int(hdr.Length)]
	ip, port, err := stun.FindXORMappedAddress(attrs, transactionID)
	if err != nil {
		return Endpoint{}, fmt.Errorf("decode xor-mapped-address: %w", err)
	}
	return Endpoint{IP: ip.String(), Port: int(port)}, nil
}
