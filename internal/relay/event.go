package relay

import (
	"github.com/emiller/chatrelay/internal/registry"
	"github.com/emiller/chatrelay/internal/room"
)

// Event type discriminators. Every frame on the wire is a flat JSON
// object with a "type" field; unknown fields are ignored.
const (
	EventJoin           = "join"
	EventMessage        = "message"
	EventCreateRoom     = "create_room"
	EventUpdateProfile  = "update_profile"
	EventUsers          = "users"
	EventRooms          = "rooms"
	EventProfileUpdated = "profile_updated"
	EventError          = "error"
)

// Event is the inbound wire shape. Which fields are meaningful depends
// on Type; the rest stay zero.
type Event struct {
	Type string `json:"type"`

	// join / update_profile
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`

	// message: RoomID and Recipient are mutually exclusive targets.
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	// create_room
	RoomName string `json:"roomName,omitempty"`
	Creator  string `json:"creator,omitempty"`
}

// MessageEvent is a delivered chat message. The sender's copy carries
// IsOwn=true so the viewer can render it without a round trip.
type MessageEvent struct {
	Type        string `json:"type"`
	Sender      string `json:"sender"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp"`
	RoomID      string `json:"roomId,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	IsOwn       bool   `json:"isOwn"`
}

// UsersEvent is the full presence snapshot pushed on any presence change.
type UsersEvent struct {
	Type  string                 `json:"type"`
	Users []registry.Participant `json:"users"`
}

// RoomsEvent is the full room list pushed on any room-set change.
type RoomsEvent struct {
	Type  string       `json:"type"`
	Rooms []*room.Room `json:"rooms"`
}

// ProfileUpdatedEvent confirms a profile change to the updating connection.
type ProfileUpdatedEvent struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// ErrorEvent reports a per-connection protocol error. It never closes
// the connection.
type ErrorEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
