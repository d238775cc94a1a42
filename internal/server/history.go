// Package server implements the bounded per-room message history.
package server

// historyRing is a fixed-capacity buffer of messages, newest at the tail.
// When full, appending evicts the oldest entry. It is not safe for concurrent
// use; the relay serializes access.
type historyRing struct {
	capacity int
	buf      []Message
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{
		capacity: capacity,
		buf:      make([]Message, 0, capacity),
	}
}

// append adds a message at the tail, evicting the oldest entry when the ring
// is already at capacity.
func (h *historyRing) append(m Message) {
	if len(h.buf) == h.capacity {
		copy(h.buf, h.buf[1:])
		h.buf = h.buf[:h.capacity-1]
	}
	h.buf = append(h.buf, m)
}

func (h *historyRing) len() int {
	return len(h.buf)
}

// snapshot returns a copy of the ring contents in chronological order,
// oldest first. The copy is safe to hand to callers outside the lock.
func (h *historyRing) snapshot() []Message {
	out := make([]Message, len(h.buf))
	copy(out, h.buf)
	return out
}
