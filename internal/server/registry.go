// Package server implements the room registry: the single owner of the
// room-name to room-state mapping.
package server

import (
	"time"

	"github.com/samber/lo"
)

// room is the registry's record for a single chat room. The name is immutable
// after creation; an empty password means an open room.
type room struct {
	name         string
	kind         RoomKind
	password     string
	lastActivity time.Time
	members      map[string]struct{}
	history      *historyRing
}

func (r *room) view() RoomView {
	return RoomView{
		Name:        r.name,
		Type:        r.kind,
		HasPassword: r.password != "",
		Users:       len(r.members),
	}
}

// Registry owns the room table. It never emits network events itself; the
// relay broadcasts snapshot updates after mutating calls. Methods are not
// safe for concurrent use; the relay serializes access under its own lock.
type Registry struct {
	rooms      map[string]*room
	order      []string // room names in insertion order, for stable listings
	historyCap int
}

// NewRegistry creates an empty registry whose rooms retain up to historyCap
// messages each.
func NewRegistry(historyCap int) *Registry {
	return &Registry{
		rooms:      make(map[string]*room),
		historyCap: historyCap,
	}
}

// Create inserts a new room with an empty member set and history. It fails
// with ErrRoomExists when the name is already taken; names are case-sensitive.
func (g *Registry) Create(name string, kind RoomKind, password string) error {
	if _, ok := g.rooms[name]; ok {
		return ErrRoomExists
	}
	g.rooms[name] = &room{
		name:         name,
		kind:         kind,
		password:     password,
		lastActivity: time.Now(),
		members:      make(map[string]struct{}),
		history:      newHistoryRing(g.historyCap),
	}
	g.order = append(g.order, name)
	return nil
}

// Delete removes a room. Callers are responsible for migrating members first;
// the registry does not do it for them.
func (g *Registry) Delete(name string) error {
	if _, ok := g.rooms[name]; !ok {
		return ErrRoomNotFound
	}
	delete(g.rooms, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// lookup returns the mutable room record for relay-internal use.
func (g *Registry) lookup(name string) (*room, bool) {
	r, ok := g.rooms[name]
	return r, ok
}

// View returns a read-only snapshot of a single room.
func (g *Registry) View(name string) (RoomView, bool) {
	r, ok := g.rooms[name]
	if !ok {
		return RoomView{}, false
	}
	return r.view(), true
}

// List returns a snapshot of every room in insertion order.
func (g *Registry) List() []RoomView {
	return lo.Map(g.order, func(name string, _ int) RoomView {
		return g.rooms[name].view()
	})
}

// Touch updates a room's last-activity timestamp to now. It is a no-op when
// the room is absent.
func (g *Registry) Touch(name string) {
	if r, ok := g.rooms[name]; ok {
		r.lastActivity = time.Now()
	}
}

// Len reports the number of rooms.
func (g *Registry) Len() int {
	return len(g.rooms)
}
