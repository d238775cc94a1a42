// Package server routes decoded client events to the relay operations they
// name. Each request carries the originating connection identifier
// explicitly; validation failures and relay errors degrade to a room_error
// notice for that connection only.
package server

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// dispatch applies one inbound envelope to the relay. Unknown events and
// malformed payloads never terminate the connection.
func (c *Client) dispatch(env Envelope) {
	switch env.Event {
	case eventCreateRoom:
		var req CreateRoomRequest
		if !c.decode(env.Data, &req) {
			return
		}
		if err := c.hub.relay.CreateRoom(c.id, req); err != nil {
			c.hub.relay.SendError(c.id, err)
		}

	case eventJoinRoom:
		var req JoinRoomRequest
		if !c.decode(env.Data, &req) {
			return
		}
		if err := c.hub.relay.JoinRoom(c.id, req.RoomName, req.Password); err != nil {
			c.hub.relay.SendError(c.id, err)
		}

	case eventSendMessage:
		var req SendMessageRequest
		if !c.decode(env.Data, &req) {
			return
		}
		if err := c.hub.relay.SendMessage(c.id, req); err != nil {
			c.hub.relay.SendError(c.id, err)
		}

	case eventGetAvailableRooms:
		c.hub.relay.SendRoomList(c.id)

	case eventGetMessageHistory:
		var req HistoryRequest
		if !c.decode(env.Data, &req) {
			return
		}
		if err := c.hub.relay.History(c.id, req.RoomName); err != nil {
			c.hub.relay.SendError(c.id, err)
		}

	default:
		c.log.Debug("unsupported event", "conn", c.id, "event", env.Event)
		c.Deliver(eventRoomError, "Unsupported event.")
	}
}

// decode unmarshals and validates an event payload, reporting failures to
// the connection as a room_error notice.
func (c *Client) decode(data json.RawMessage, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Debug("invalid payload", "conn", c.id, "err", err)
		c.Deliver(eventRoomError, "Invalid request payload.")
		return false
	}
	if err := validate.Struct(out); err != nil {
		c.log.Debug("payload failed validation", "conn", c.id, "err", err)
		c.Deliver(eventRoomError, "Invalid request payload.")
		return false
	}
	return true
}
