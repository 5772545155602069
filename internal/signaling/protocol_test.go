package signaling

import (
	"encoding/json"
	"testing"
)

func TestParseClientMessageCreateRoom(t *testing.T) {
	msg, err := parseClientMessage([]byte(`{"type":"create_room"}`))
	if err != nil {
		t.Fatalf("parseClientMessage: %v", err)
	}
	if msg.Type != clientTypeCreateRoom {
		t.Fatalf("got type %q", msg.Type)
	}
}

func TestParseClientMessageJoinRoom(t *testing.T) {
	msg, err := parseClientMessage([]byte(`{"type":"join_room","code":"ABCD1234"}`))
	if err != nil {
		t.Fatalf("parseClientMessage: %v", err)
	}
	if msg.Type != clientTypeJoinRoom || msg.Code != "ABCD1234" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseClientMessageInvalidJSON(t *testing.T) {
	if _, err := parseClientMessage([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestNewRoomCreatedMessageShape(t *testing.T) {
	data := newRoomCreatedMessage(RoomCode("ABCD1234"), PeerId("peer_deadbeef"))
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "room_created" || decoded["code"] != "ABCD1234" || decoded["your_id"] != "peer_deadbeef" {
		t.Fatalf("unexpected fields: %+v", decoded)
	}
}

func TestNewRoomJoinedMessageEmptyPeersIsEmptyArrayNotNull(t *testing.T) {
	data := newRoomJoinedMessage(RoomCode("ABCD1234"), PeerId("peer_1"), nil)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["peers"]) != "[]" {
		t.Fatalf("expected peers to serialize as [], got %s", raw["peers"])
	}
}

func TestPeerInfoPublicAddrNullWhenAbsent(t *testing.T) {
	data, err := json.Marshal(PeerInfo{ID: "peer_1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["public_addr"]) != "null" {
		t.Fatalf("expected public_addr to be null, got %s", raw["public_addr"])
	}
}

func TestNewErrorMessageShape(t *testing.T) {
	data := newErrorMessage("room not found: ABCD1234")
	var decoded errorMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "error" || decoded.Message != "room not found: ABCD1234" {
		t.Fatalf("unexpected fields: %+v", decoded)
	}
}
