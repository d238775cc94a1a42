package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryRingEvictsOldestAtCapacity(t *testing.T) {
	ring := newHistoryRing(10)

	for i := 1; i <= 11; i++ {
		ring.append(Message{Body: fmt.Sprintf("msg-%d", i)})
	}

	require.Equal(t, 10, ring.len())

	got := ring.snapshot()
	require.Len(t, got, 10)
	require.Equal(t, "msg-2", got[0].Body, "oldest surviving message first")
	require.Equal(t, "msg-11", got[9].Body, "newest message last")
}

func TestHistoryRingEmptySnapshot(t *testing.T) {
	ring := newHistoryRing(10)

	require.Zero(t, ring.len())
	require.Empty(t, ring.snapshot())
}

func TestHistoryRingSnapshotIsACopy(t *testing.T) {
	ring := newHistoryRing(3)
	ring.append(Message{Body: "first"})

	snap := ring.snapshot()
	snap[0].Body = "mutated"

	require.Equal(t, "first", ring.snapshot()[0].Body)
}

func TestHistoryRingGuardsAgainstNonPositiveCapacity(t *testing.T) {
	ring := newHistoryRing(0)
	ring.append(Message{Body: "a"})
	ring.append(Message{Body: "b"})

	require.Equal(t, 1, ring.len())
	require.Equal(t, "b", ring.snapshot()[0].Body)
}
