// Package server tracks which room each connection belongs to and implements
// the join/leave primitives shared by foreground handlers and the reaper.
package server

import "time"

// Membership is the side table mapping a connection identifier to the name of
// the room it currently occupies. A connection appears at most once, so it is
// a member of at most one room system-wide. Not safe for concurrent use; the
// relay serializes access.
type Membership struct {
	current map[string]string
}

func NewMembership() *Membership {
	return &Membership{current: make(map[string]string)}
}

// RoomOf returns the room the connection currently occupies, if any.
func (m *Membership) RoomOf(connID string) (string, bool) {
	name, ok := m.current[connID]
	return name, ok
}

func (m *Membership) assign(connID, roomName string) {
	m.current[connID] = roomName
}

func (m *Membership) clear(connID string) {
	delete(m.current, connID)
}

// Len reports the number of connections currently assigned to a room.
func (m *Membership) Len() int {
	return len(m.current)
}

// Connect registers a connection's delivery sink and places it into the
// default room, acknowledging the join to the connection itself.
func (r *Relay) Connect(connID string, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[connID] = sink
	if lobby, ok := r.registry.lookup(r.defaultRoom); ok {
		r.joinLocked(connID, lobby)
	}
	r.log.Info("connection established", "conn", connID)
}

// Disconnect removes the connection from its current room, broadcasts the
// updated room listing, and forgets the delivery sink.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.members.RoomOf(connID); ok {
		r.leaveLocked(connID, current)
		r.broadcastAllLocked(eventAvailableRooms, r.registry.List())
	}
	delete(r.sinks, connID)
	r.log.Info("connection closed", "conn", connID)
}

// JoinRoom moves the connection into the named room, leaving its current room
// first. It fails with ErrRoomNotFound for unknown rooms and ErrWrongPassword
// for a credential mismatch; on failure the connection's current room is
// untouched. On success the updated room listing is broadcast to everyone.
func (r *Relay) JoinRoom(connID, roomName, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.registry.lookup(roomName)
	if !ok {
		return ErrRoomNotFound
	}
	if rm.password != "" && rm.password != password {
		return ErrWrongPassword
	}

	r.joinLocked(connID, rm)
	r.broadcastAllLocked(eventAvailableRooms, r.registry.List())
	return nil
}

// joinLocked adds the connection to the target room, performing the implicit
// leave from its prior room first so no observer can see the connection in
// two rooms at once. Emits the joined_room ack, the user_joined notification
// to other members, and the presence-count update. Caller holds r.mu.
func (r *Relay) joinLocked(connID string, rm *room) {
	if current, ok := r.members.RoomOf(connID); ok {
		r.leaveLocked(connID, current)
	}

	rm.members[connID] = struct{}{}
	r.members.assign(connID, rm.name)
	rm.lastActivity = time.Now()

	r.deliverLocked(connID, eventJoinedRoom, rm.name)
	r.broadcastRoomLocked(rm, connID, eventUserJoined, connID)
	r.presenceLocked(rm)
	r.log.Debug("joined room", "conn", connID, "room", rm.name)
}

// leaveLocked removes the connection from the named room and notifies the
// remaining members. It is a no-op when the connection is not actually a
// member, so repeated leaves produce no duplicate notifications. Caller
// holds r.mu.
func (r *Relay) leaveLocked(connID, roomName string) {
	rm, ok := r.registry.lookup(roomName)
	if !ok {
		return
	}
	if _, member := rm.members[connID]; !member {
		return
	}

	delete(rm.members, connID)
	r.members.clear(connID)

	r.broadcastRoomLocked(rm, connID, eventUserLeft, connID)
	r.presenceLocked(rm)
	r.log.Debug("left room", "conn", connID, "room", roomName)
}
