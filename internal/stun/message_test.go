package stun

import (
	"errors"
	"testing"
)

// TestParseBindingRequestHappyPath exercises a worked RFC 5389 Binding
// Request byte sequence with a known transaction id.
func TestParseBindingRequestHappyPath(t *testing.T) {
	data := []byte{
		0x00, 0x01, 0x00, 0x00, // type=BindingRequest, length=0
		0x21, 0x12, 0xA4, 0x42, // magic cookie
	}
	data = append(data, []byte("BENCHMARK123")...) // 12-byte transaction id

	req, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.Type != TypeBindingRequest {
		t.Errorf("expected BindingRequest, got %v", req.Type)
	}
	if string(req.TransactionID[:]) != "BENCHMARK123" {
		t.Errorf("transaction id mismatch: got %q", req.TransactionID[:])
	}
}

func TestParseMessageTooShort(t *testing.T) {
	for _, n := range []int{0, 19} {
		data := make([]byte, n)
		_, err := Parse(data)
		var tooShort *MessageTooShortError
		if !errors.As(err, &tooShort) {
			t.Errorf("len=%d: expected MessageTooShortError, got %v", n, err)
		} else if tooShort.Expected != HeaderSize || tooShort.Actual != n {
			t.Errorf("len=%d: unexpected fields: %+v", n, tooShort)
		}
	}
}

func TestParseInvalidMagicCookie(t *testing.T) {
	data := []byte{
		0x00, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // wrong cookie
	}
	data = append(data, make([]byte, 12)...)

	_, err := Parse(data)
	var badCookie *InvalidMagicCookieError
	if !errors.As(err, &badCookie) {
		t.Fatalf("expected InvalidMagicCookieError, got %v", err)
	}
	if badCookie.Expected != MagicCookie || badCookie.Actual != 0 {
		t.Errorf("unexpected fields: %+v", badCookie)
	}
}

func TestParseUnknownMessageType(t *testing.T) {
	data := []byte{
		0xFF, 0xFF, 0x00, 0x00,
		0x21, 0x12, 0xA4, 0x42,
	}
	data = append(data, make([]byte, 12)...)

	_, err := Parse(data)
	var unknown *UnknownMessageTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMessageTypeError, got %v", err)
	}
	if unknown.Value != 0xFFFF {
		t.Errorf("unexpected value: 0x%04X", unknown.Value)
	}
}

// TestBuildBindingResponseExactBytes verifies the exact byte values of a
// Binding Success Response for a known transaction id, IP, and port.
func TestBuildBindingResponseExactBytes(t *testing.T) {
	var txID TransactionID
	copy(txID[:], "BENCHMARK123")

	resp := BuildBindingResponse(txID, [4]byte{192, 168, 1, 100}, 12345)

	if len(resp) != 32 {
		t.Fatalf("expected 32-byte response, got %d", len(resp))
	}
	if resp[0] != 0x01 || resp[1] != 0x01 {
		t.Errorf("expected type 0x0101, got 0x%02X%02X", resp[0], resp[1])
	}
	if resp[2] != 0x00 || resp[3] != 0x0C {
		t.Errorf("expected length 0x000C, got 0x%02X%02X", resp[2], resp[3])
	}
	if resp[4] != 0x21 || resp[5] != 0x12 || resp[6] != 0xA4 || resp[7] != 0x42 {
		t.Errorf("unexpected magic cookie bytes: % X", resp[4:8])
	}
	if string(resp[8:20]) != "BENCHMARK123" {
		t.Errorf("transaction id mismatch: %q", resp[8:20])
	}
	wantAttrHeader := []byte{0x00, 0x20, 0x00, 0x08, 0x00, 0x01}
	for i, b := range wantAttrHeader {
		if resp[20+i] != b {
			t.Errorf("attribute header byte %d: expected 0x%02X, got 0x%02X", i, b, resp[20+i])
		}
	}
	// port 12345 = 0x3039, XOR 0x2112 = 0x112B
	if resp[26] != 0x11 || resp[27] != 0x2B {
		t.Errorf("xor'd port mismatch: got 0x%02X%02X", resp[26], resp[27])
	}
	// C0^21, A8^12, 01^A4, 64^42 = E1 BA A5 26
	wantIP := []byte{0xE1, 0xBA, 0xA5, 0x26}
	for i, b := range wantIP {
		if resp[28+i] != b {
			t.Errorf("xor'd address byte %d: expected 0x%02X, got 0x%02X", i, b, resp[28+i])
		}
	}
}

func TestBuildThenParseRoundTrip(t *testing.T) {
	var txID TransactionID
	copy(txID[:], "ROUNDTRIP123")

	wantIP := [4]byte{203, 0, 113, 42}
	wantPort := uint16(54321)

	resp := BuildBindingResponse(txID, wantIP, wantPort)
	parsedHdr, err := Parse(resp[:])
	if err != nil {
		t.Fatalf("Parse of built response failed: %v", err)
	}
	if parsedHdr.Type != TypeBindingResponse {
		t.Errorf("expected BindingResponse, got %v", parsedHdr.Type)
	}
	if parsedHdr.TransactionID != txID {
		t.Errorf("transaction id did not round-trip")
	}

	gotIP, gotPort, err := ParseXORMappedAddress(resp)
	if err != nil {
		t.Fatalf("ParseXORMappedAddress failed: %v", err)
	}
	if gotIP != wantIP {
		t.Errorf("ip mismatch: expected %v, got %v", wantIP, gotIP)
	}
	if gotPort != wantPort {
		t.Errorf("port mismatch: expected %d, got %d", wantPort, gotPort)
	}
}
