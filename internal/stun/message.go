// Package stun implements the RFC 5389 wire codec subset used by the
// binding server: header parsing for inbound requests and XOR-MAPPED-ADDRESS
// binding response construction. No other attributes are parsed or
// produced, and STUN authentication (MESSAGE-INTEGRITY, FINGERPRINT) is not
// implemented.
package stun

import (
	"encoding/binary"
	"fmt"
)

// MessageType identifies a STUN message's method and class.
type MessageType uint16

const (
	TypeBindingRequest  MessageType = 0x0001
	TypeBindingResponse MessageType = 0x0101
	TypeBindingError    MessageType = 0x0111
)

func (t MessageType) String() string {
	switch t {
	case TypeBindingRequest:
		return "Binding Request"
	case TypeBindingResponse:
		return "Binding Success Response"
	case TypeBindingError:
		return "Binding Error Response"
	default:
		return fmt.Sprintf("Unknown (0x%04X)", uint16(t))
	}
}

const (
	// MagicCookie is the fixed RFC 5389 cookie distinguishing this
	// protocol generation from classic STUN.
	MagicCookie uint32 = 0x2112A442

	// HeaderSize is the fixed STUN header length in bytes.
	HeaderSize = 20

	// TransactionIDSize is the length of the opaque transaction ID.
	TransactionIDSize = 12

	// BindingResponseSize is the fixed size of a binding response: the
	// 20-byte header plus a 12-byte XOR-MAPPED-ADDRESS attribute.
	BindingResponseSize = HeaderSize + 12

	familyIPv4 = 0x01
)

// TransactionID is the 12-byte opaque identifier echoed from request to
// response.
type TransactionID [TransactionIDSize]byte

// Request is a parsed STUN message header. Length is the byte length of
// the attribute section that follows the header, straight off the wire;
// callers that care about attributes are responsible for slicing and
// walking them.
type Request struct {
	Type          MessageType
	Length        uint16
	TransactionID TransactionID
}

// IsBindingRequest reports whether the parsed message is a Binding Request.
func (r Request) IsBindingRequest() bool {
	return r.Type == TypeBindingRequest
}

// Parse validates and decodes a STUN message header from d. It requires at
// least HeaderSize bytes, a recognized message type, and the fixed magic
// cookie. The message length field and any attributes are not validated —
// only header presence is required.
func Parse(d []byte) (Request, error) {
	if len(d) < HeaderSize {
		return Request{}, &MessageTooShortError{Expected: HeaderSize, Actual: len(d)}
	}

	msgType := MessageType(binary.BigEndian.Uint16(d[0:2]))
	switch msgType {
	case TypeBindingRequest, TypeBindingResponse, TypeBindingError:
	default:
		return Request{}, &UnknownMessageTypeError{Value: uint16(msgType)}
	}

	cookie := binary.BigEndian.Uint32(d[4:8])
	if cookie != MagicCookie {
		return Request{}, &InvalidMagicCookieError{Expected: MagicCookie, Actual: cookie}
	}

	var req Request
	req.Type = msgType
	req.Length = binary.BigEndian.Uint16(d[2:4])
	copy(req.TransactionID[:], d[8:20])
	return req, nil
}

// BuildBindingRequest produces a bare 20-byte Binding Request header with
// an empty attribute section.
func BuildBindingRequest(transactionID TransactionID) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeBindingRequest))
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint32(buf[4:8], MagicCookie)
	copy(buf[8:20], transactionID[:])
	return buf
}

// BuildBindingResponse produces the exact 32-byte Binding Success Response
// wire format: header echoing transactionID, followed by a single
// XOR-MAPPED-ADDRESS attribute encoding ip:port per §3.
func BuildBindingResponse(transactionID TransactionID, ip [4]byte, port uint16) [BindingResponseSize]byte {
	var buf [BindingResponseSize]byte

	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeBindingResponse))
	binary.BigEndian.PutUint16(buf[2:4], 0x000C) // attribute length = 12
	binary.BigEndian.PutUint32(buf[4:8], MagicCookie)
	copy(buf[8:20], transactionID[:])

	// XOR-MAPPED-ADDRESS attribute (IPv4): type, length, reserved, family.
	binary.BigEndian.PutUint16(buf[20:22], 0x0020)
	binary.BigEndian.PutUint16(buf[22:24], 0x0008)
	buf[24] = 0x00
	buf[25] = familyIPv4

	xorPort := port ^ uint16(MagicCookie>>16)
	binary.BigEndian.PutUint16(buf[26:28], xorPort)

	cookieBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(cookieBytes, MagicCookie)
	buf[28] = ip[0] ^ cookieBytes[0]
	buf[29] = ip[1] ^ cookieBytes[1]
	buf[30] = ip[2] ^ cookieBytes[2]
	buf[31] = ip[3] ^ cookieBytes[3]

	return buf
}

// ParseXORMappedAddress decodes the XOR-MAPPED-ADDRESS attribute out of a
// 32-byte binding response built by BuildBindingResponse. It exists
// primarily to make the builder's round-trip property testable.
func ParseXORMappedAddress(resp [BindingResponseSize]byte) (ip [4]byte, port uint16, err error) {
	if binary.BigEndian.Uint16(resp[20:22]) != 0x0020 {
		return ip, 0, fmt.Errorf("not an XOR-MAPPED-ADDRESS attribute")
	}
	if resp[25] != familyIPv4 {
		return ip, 0, fmt.Errorf("unsupported address family: 0x%02x", resp[25])
	}

	xorPort := binary.BigEndian.Uint16(resp[26:28])
	port = xorPort ^ uint16(MagicCookie>>16)

	cookieBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(cookieBytes, MagicCookie)
	for i := 0; i < 4; i++ {
		ip[i] = resp[28+i] ^ cookieBytes[i]
	}
	return ip, port, nil
}
