// Package signaling implements the WebSocket signaling server: the room
// manager actor, the tagged message vocabulary, and the per-connection
// handler that ties them to the transport.
package signaling

import "encoding/json"

// ClientMessage is the tagged envelope for inbound client -> server frames.
// Only Type and, for join_room, Code are read; unknown fields are ignored
// by encoding/json's default Unmarshal behavior.
type ClientMessage struct {
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
}

const (
	clientTypeCreateRoom = "create_room"
	clientTypeJoinRoom   = "join_room"
	clientTypeLeaveRoom  = "leave_room"
)

// --- Outbound (server -> client) message vocabulary. ---

type roomCreatedMessage struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	YourID string `json:"your_id"`
}

func newRoomCreatedMessage(code RoomCode, peerID PeerId) []byte {
	data, _ := json.Marshal(roomCreatedMessage{
		Type:   "room_created",
		Code:   string(code),
		YourID: string(peerID),
	})
	return data
}

type roomJoinedMessage struct {
	Type   string     `json:"type"`
	Code   string     `json:"code"`
	YourID string     `json:"your_id"`
	Peers  []PeerInfo `json:"peers"`
}

func newRoomJoinedMessage(code RoomCode, peerID PeerId, peers []PeerInfo) []byte {
	if peers == nil {
		peers = []PeerInfo{}
	}
	data, _ := json.Marshal(roomJoinedMessage{
		Type:   "room_joined",
		Code:   string(code),
		YourID: string(peerID),
		Peers:  peers,
	})
	return data
}

type peerJoinedMessage struct {
	Type string   `json:"type"`
	Peer PeerInfo `json:"peer"`
}

func newPeerJoinedMessage(peer PeerInfo) []byte {
	data, _ := json.Marshal(peerJoinedMessage{Type: "peer_joined", Peer: peer})
	return data
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorMessage(message string) []byte {
	data, _ := json.Marshal(errorMessage{Type: "error", Message: message})
	return data
}

// parseClientMessage decodes an inbound text frame. Malformed JSON is
// reported via the returned error; the caller replies with an error message
// and keeps the connection open.
func parseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, err
	}
	return msg, nil
}
