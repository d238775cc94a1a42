// Package server declares the recoverable error classes of the relay core.
package server

import "errors"

// Sentinel errors returned by registry, membership, and broadcast operations.
// All of them are recoverable: handlers report them to the originating
// connection as a room_error notice and carry on.
var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPassword = errors.New("wrong password")
)

// noticeFor maps a relay error to the human-readable notice delivered to the
// requesting connection. Unknown errors fall back to the raw error text.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrRoomExists):
		return "A room with this name already exists."
	case errors.Is(err, ErrRoomNotFound):
		return "No room exists with this name."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password."
	default:
		return err.Error()
	}
}
