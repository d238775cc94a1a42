// Package server implements the Relay, the single mutual-exclusion domain
// over the room registry, the membership table, and event delivery. Every
// room-state mutation, foreground or reaper-driven, goes through it, and
// notifications are enqueued under the same lock so delivery order matches
// mutation order.
package server

import (
	"log/slog"
	"sync"
	"time"
)

// EventSink receives server-to-client events for a single connection.
// Deliver reports whether the event was accepted; a false return means the
// transport is gone or saturated and the event was dropped for that
// connection only.
type EventSink interface {
	Deliver(event string, data any) bool
}

// Relay owns all room state. Operations are synchronous, in-memory, and
// complete in bounded time; callers from any goroutine are serialized by a
// single coarse lock.
type Relay struct {
	mu          sync.Mutex
	log         *slog.Logger
	registry    *Registry
	members     *Membership
	sinks       map[string]EventSink
	defaultRoom string
}

// NewRelay creates a relay with the default room and the configured
// pre-provisioned permanent rooms already in place.
func NewRelay(cfg Config, log *slog.Logger) *Relay {
	r := &Relay{
		log:         log,
		registry:    NewRegistry(cfg.HistoryCapacity),
		members:     NewMembership(),
		sinks:       make(map[string]EventSink),
		defaultRoom: cfg.DefaultRoom,
	}

	if err := r.registry.Create(cfg.DefaultRoom, RoomPermanent, ""); err != nil {
		log.Error("default room setup failed", "room", cfg.DefaultRoom, "err", err)
	}
	for _, name := range cfg.PermanentRooms {
		if name == cfg.DefaultRoom {
			continue
		}
		if err := r.registry.Create(name, RoomPermanent, ""); err != nil {
			log.Warn("skipping duplicate permanent room", "room", name)
		}
	}
	return r
}

// CreateRoom inserts a new room and moves the creator into it. Fails with
// ErrRoomExists when the name is taken, leaving the existing room untouched.
// On success the creator receives a room_created ack, is joined to the room,
// and the updated room listing is broadcast to every connection.
func (r *Relay) CreateRoom(connID string, req CreateRoomRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := RoomEphemeral
	if req.RoomType == string(RoomPermanent) {
		kind = RoomPermanent
	}

	if err := r.registry.Create(req.RoomName, kind, req.Password); err != nil {
		return err
	}

	r.deliverLocked(connID, eventRoomCreated, req.RoomName)
	if rm, ok := r.registry.lookup(req.RoomName); ok {
		r.joinLocked(connID, rm)
	}
	r.broadcastAllLocked(eventAvailableRooms, r.registry.List())
	r.log.Info("room created", "room", req.RoomName, "kind", kind, "creator", connID)
	return nil
}

// SendMessage appends a message to the room's history ring, refreshes the
// room's activity, and delivers it to every current member including the
// sender. Fails with ErrRoomNotFound, reported to the sender only.
func (r *Relay) SendMessage(connID string, req SendMessageRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.registry.lookup(req.RoomName)
	if !ok {
		return ErrRoomNotFound
	}
	rm.lastActivity = time.Now()

	msg := Message{
		Sender:    connID,
		Nickname:  req.Nickname,
		Body:      req.Message,
		RoomName:  req.RoomName,
		Timestamp: nowMillis(),
	}
	rm.history.append(msg)
	r.broadcastRoomLocked(rm, "", eventNewMessage, msg)
	return nil
}

// History delivers the room's current ring contents, oldest first, to the
// requesting connection. A room with no messages yields an empty sequence;
// an unknown room fails with ErrRoomNotFound.
func (r *Relay) History(connID, roomName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.registry.lookup(roomName)
	if !ok {
		return ErrRoomNotFound
	}
	r.deliverLocked(connID, eventMessageHistory, rm.history.snapshot())
	return nil
}

// SendRoomList delivers the current room listing to a single connection.
func (r *Relay) SendRoomList(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deliverLocked(connID, eventAvailableRooms, r.registry.List())
}

// SendError reports a relay error to the originating connection as a
// human-readable room_error notice. Errors are never broadcast.
func (r *Relay) SendError(connID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deliverLocked(connID, eventRoomError, noticeFor(err))
}

// RoomOf returns the room the connection currently occupies, if any.
func (r *Relay) RoomOf(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.members.RoomOf(connID)
}

// Rooms returns a snapshot of every room in insertion order.
func (r *Relay) Rooms() []RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.registry.List()
}

// deliverLocked sends an event to one connection. Missing or saturated sinks
// are skipped silently. Caller holds r.mu.
func (r *Relay) deliverLocked(connID, event string, data any) bool {
	sink, ok := r.sinks[connID]
	if !ok {
		return false
	}
	return sink.Deliver(event, data)
}

// broadcastRoomLocked sends an event to every member of a room, optionally
// excluding one connection. Caller holds r.mu.
func (r *Relay) broadcastRoomLocked(rm *room, except string, event string, data any) {
	for connID := range rm.members {
		if connID == except {
			continue
		}
		r.deliverLocked(connID, event, data)
	}
}

// broadcastAllLocked sends an event to every connection. Caller holds r.mu.
func (r *Relay) broadcastAllLocked(event string, data any) {
	for connID := range r.sinks {
		r.deliverLocked(connID, event, data)
	}
}

// presenceLocked broadcasts the room's presence count to its members.
// Caller holds r.mu.
func (r *Relay) presenceLocked(rm *room) {
	r.broadcastRoomLocked(rm, "", eventRoomInfoUpdate, RoomInfo{
		Room:  rm.name,
		Users: len(rm.members),
	})
}
