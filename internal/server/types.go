// Package server defines the wire-level envelope and payload types exchanged
// between clients and the relay, plus utility helpers reused across client
// and hub logic.
package server

import (
	"encoding/json"
	"strings"
	"time"
)

// Client-to-server event names.
const (
	eventCreateRoom        = "create_room"
	eventJoinRoom          = "join_room"
	eventSendMessage       = "send_message"
	eventGetAvailableRooms = "get_available_rooms"
	eventGetMessageHistory = "get_message_history"
)

// Server-to-client event names.
const (
	eventRoomCreated    = "room_created"
	eventJoinedRoom     = "joined_room"
	eventRoomError      = "room_error"
	eventNewMessage     = "new_message"
	eventUserJoined     = "user_joined"
	eventUserLeft       = "user_left"
	eventRoomInfoUpdate = "room_info_update"
	eventAvailableRooms = "available_rooms"
	eventRoomDeleted    = "room_deleted"
	eventRoomMessage    = "room_message"
	eventMessageHistory = "message_history"
)

// Envelope is the JSON frame exchanged in both directions: an event name and
// an event-specific data payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateRoomRequest is the payload of a create_room event. A roomType other
// than "permanent" yields an ephemeral room.
type CreateRoomRequest struct {
	RoomName string `json:"roomName" validate:"required,max=64"`
	RoomType string `json:"roomType" validate:"omitempty,oneof=permanent ephemeral"`
	Password string `json:"password" validate:"omitempty,max=128"`
}

// JoinRoomRequest is the payload of a join_room event.
type JoinRoomRequest struct {
	RoomName string `json:"roomName" validate:"required,max=64"`
	Password string `json:"password" validate:"omitempty,max=128"`
}

// SendMessageRequest is the payload of a send_message event. The nickname is
// caller-supplied display text and is not validated against any identity.
type SendMessageRequest struct {
	RoomName string `json:"roomName" validate:"required,max=64"`
	Message  string `json:"message" validate:"required,max=2000"`
	Nickname string `json:"nickname" validate:"omitempty,max=32"`
}

// HistoryRequest is the payload of a get_message_history event.
type HistoryRequest struct {
	RoomName string `json:"roomName" validate:"required,max=64"`
}

// Message is a chat message as stored in a room's history ring and delivered
// to room members. Messages are immutable once created.
type Message struct {
	Sender    string `json:"sender"`
	Nickname  string `json:"nickname,omitempty"`
	Body      string `json:"message"`
	RoomName  string `json:"roomName"`
	Timestamp int64  `json:"timestamp"`
}

// RoomKind distinguishes pre-provisioned rooms from user-created ones.
// Permanent rooms are exempt from reaping.
type RoomKind string

// Room kinds.
const (
	RoomPermanent RoomKind = "permanent"
	RoomEphemeral RoomKind = "ephemeral"
)

// RoomView is a read-only snapshot of a room used for listings. The password
// itself is never exposed, only its presence.
type RoomView struct {
	Name        string   `json:"name"`
	Type        RoomKind `json:"type"`
	HasPassword bool     `json:"hasPassword"`
	Users       int      `json:"users"`
}

// RoomInfo is the payload of a room_info_update presence broadcast.
type RoomInfo struct {
	Room  string `json:"room"`
	Users int    `json:"users"`
}

// nowMillis returns the current wall-clock time in milliseconds, the unit
// used for message timestamps on the wire.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
