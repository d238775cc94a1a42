// Package server implements the inactivity reaper: a periodic sweep that
// deletes ephemeral rooms idle past a threshold and migrates their members
// back to the default room.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Reaper periodically asks the relay to reap idle ephemeral rooms. The period
// is a lower bound, not a real-time guarantee; a room slightly exceeding the
// threshold before the next sweep is acceptable.
type Reaper struct {
	relay     *Relay
	interval  time.Duration
	threshold time.Duration
	log       *slog.Logger
}

func NewReaper(relay *Relay, cfg Config, log *slog.Logger) *Reaper {
	return &Reaper{
		relay:     relay,
		interval:  cfg.ReapInterval,
		threshold: cfg.InactivityThreshold,
		log:       log,
	}
}

// Run sweeps on a fixed period until the context is cancelled. It should be
// called in its own goroutine.
func (p *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("reaper started", "interval", p.interval, "threshold", p.threshold)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("reaper stopped")
			return
		case <-ticker.C:
			if n := p.relay.ReapIdle(time.Now(), p.threshold); n > 0 {
				p.log.Info("reaped idle rooms", "count", n)
			}
		}
	}
}

// ReapIdle deletes every ephemeral room whose last activity is older than
// now minus threshold, migrating each member to the default room with a
// room_message notice first. Members whose transport is already gone are
// skipped silently, and one room's migration never prevents reaping of the
// others. Returns the number of rooms reaped; when any were, the updated
// room listing is broadcast to all connections afterwards.
func (r *Relay) ReapIdle(now time.Time, threshold time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-threshold)

	var stale []*room
	for _, name := range r.registry.order {
		rm := r.registry.rooms[name]
		// The default room is permanent by construction, but never reap it
		// regardless of its recorded kind.
		if rm.name == r.defaultRoom || rm.kind != RoomEphemeral {
			continue
		}
		if rm.lastActivity.Before(cutoff) {
			stale = append(stale, rm)
		}
	}

	for _, rm := range stale {
		lobby, ok := r.registry.lookup(r.defaultRoom)
		if !ok {
			r.log.Error("default room missing, skipping migration", "room", rm.name)
		}

		notice := fmt.Sprintf("Room '%s' was deleted due to inactivity. You were moved to the lobby.", rm.name)
		// Snapshot the member set: leave/join mutate it during migration.
		for _, connID := range lo.Keys(rm.members) {
			r.deliverLocked(connID, eventRoomMessage, notice)
			r.leaveLocked(connID, rm.name)
			if ok {
				r.joinLocked(connID, lobby)
			}
		}

		if err := r.registry.Delete(rm.name); err != nil {
			r.log.Error("failed to delete reaped room", "room", rm.name, "err", err)
			continue
		}
		r.broadcastAllLocked(eventRoomDeleted, rm.name)
		r.log.Info("room reaped", "room", rm.name, "idle_since", rm.lastActivity)
	}

	if len(stale) > 0 {
		r.broadcastAllLocked(eventAvailableRooms, r.registry.List())
	}
	return len(stale)
}
