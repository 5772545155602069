package stun

import "fmt"

// MessageTooShortError is returned when a datagram is shorter than the
// fixed 20-byte STUN header.
type MessageTooShortError struct {
	Expected int
	Actual   int
}

func (e *MessageTooShortError) Error() string {
	return fmt.Sprintf("message too short: expected at least %d bytes, got %d", e.Expected, e.Actual)
}

// InvalidMagicCookieError is returned when the header's magic cookie field
// does not equal MagicCookie.
type InvalidMagicCookieError struct {
	Expected uint32
	Actual   uint32
}

func (e *InvalidMagicCookieError) Error() string {
	return fmt.Sprintf("invalid magic cookie: expected 0x%08X, got 0x%08X", e.Expected, e.Actual)
}

// UnknownMessageTypeError is returned when the header's message type field
// is not one of the three recognized values.
type UnknownMessageTypeError struct {
	Value uint16
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type: 0x%04X", e.Value)
}

// UnsupportedMessageTypeError is returned by the server layer (not the
// codec) when a well-formed header carries a type the binding server does
// not serve, e.g. a client sending a Binding Response.
type UnsupportedMessageTypeError struct {
	Type MessageType
}

func (e *UnsupportedMessageTypeError) Error() string {
	return fmt.Sprintf("unsupported message type: %s", e.Type)
}

// Ipv6NotSupportedError is returned by the server layer when the client
// address observed on the socket is not IPv4.
type Ipv6NotSupportedError struct{}

func (e *Ipv6NotSupportedError) Error() string {
	return "IPv6 is not supported yet"
}

// AttributeNotFoundError is returned when walking an attribute section
// finds no attribute of the requested type.
type AttributeNotFoundError struct {
	Type uint16
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("attribute 0x%04X not found", e.Type)
}

// TruncatedAttributeError is returned when an attribute's declared length
// runs past the end of the section being walked.
type TruncatedAttributeError struct {
	Type   uint16
	Length uint16
}

func (e *TruncatedAttributeError) Error() string {
	return fmt.Sprintf("truncated attribute 0x%04X: declared length %d", e.Type, e.Length)
}

// UnsupportedAddressFamilyError is returned when an XOR-MAPPED-ADDRESS
// attribute names an address family other than IPv4 or IPv6.
type UnsupportedAddressFamilyError struct {
	Family byte
}

func (e *UnsupportedAddressFamilyError) Error() string {
	return fmt.Sprintf("unsupported address family: 0x%02X", e.Family)
}
