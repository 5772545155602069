package signaling

import "fmt"

// Error is a signaling-domain error surfaced to clients as an {"type":"error"}
// reply. Code mirrors a small taxonomy; Message is the human-readable text
// sent over the wire.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

const (
	ErrorCodeRoomNotFound = "ROOM_NOT_FOUND"
	ErrorCodeInternal     = "INTERNAL_ERROR"
	ErrorCodeInvalidJSON  = "INVALID_JSON"
	ErrorCodeUnknownType  = "UNKNOWN_TYPE"
)

// ErrRoomNotFound builds the error returned for a Join against a code with
// no room.
func ErrRoomNotFound(code RoomCode) *Error {
	return &Error{Code: ErrorCodeRoomNotFound, Message: fmt.Sprintf("room not found: %s", code)}
}

// ErrActorClosed is returned when a command is submitted to the room
// manager after Stop has been called.
var ErrActorClosed = &Error{Code: ErrorCodeInternal, Message: "actor channel closed"}
