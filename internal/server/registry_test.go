package server

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAndView(t *testing.T) {
	reg := NewRegistry(10)

	require.NoError(t, reg.Create("General", RoomPermanent, ""))
	require.NoError(t, reg.Create("secret", RoomEphemeral, "hunter2"))

	view, ok := reg.View("secret")
	require.True(t, ok)
	require.Equal(t, "secret", view.Name)
	require.Equal(t, RoomEphemeral, view.Type)
	require.True(t, view.HasPassword)
	require.Zero(t, view.Users)

	_, ok = reg.View("missing")
	require.False(t, ok)
}

func TestRegistryCreateDuplicateFails(t *testing.T) {
	reg := NewRegistry(10)
	require.NoError(t, reg.Create("General", RoomPermanent, ""))

	rm, _ := reg.lookup("General")
	rm.members["conn-1"] = struct{}{}
	rm.history.append(Message{Body: "kept"})

	err := reg.Create("General", RoomEphemeral, "pw")
	require.ErrorIs(t, err, ErrRoomExists)

	// The existing room's state is untouched by the failed create.
	view, _ := reg.View("General")
	require.Equal(t, RoomPermanent, view.Type)
	require.False(t, view.HasPassword)
	require.Equal(t, 1, view.Users)
	require.Equal(t, 1, rm.history.len())
}

func TestRegistryNamesAreCaseSensitive(t *testing.T) {
	reg := NewRegistry(10)
	require.NoError(t, reg.Create("gaming", RoomEphemeral, ""))
	require.NoError(t, reg.Create("Gaming", RoomEphemeral, ""))
	require.Equal(t, 2, reg.Len())
}

func TestRegistryDelete(t *testing.T) {
	reg := NewRegistry(10)
	require.NoError(t, reg.Create("doomed", RoomEphemeral, ""))

	require.NoError(t, reg.Delete("doomed"))
	require.ErrorIs(t, reg.Delete("doomed"), ErrRoomNotFound)
	_, ok := reg.View("doomed")
	require.False(t, ok)
}

func TestRegistryListInsertionOrder(t *testing.T) {
	reg := NewRegistry(10)
	names := []string{"lobby", "General", "Technology", "Gaming"}
	for _, name := range names {
		require.NoError(t, reg.Create(name, RoomPermanent, ""))
	}
	require.NoError(t, reg.Delete("Technology"))
	require.NoError(t, reg.Create("Arcade", RoomEphemeral, ""))

	got := lo.Map(reg.List(), func(v RoomView, _ int) string { return v.Name })
	require.Equal(t, []string{"lobby", "General", "Gaming", "Arcade"}, got)
}

func TestRegistryTouch(t *testing.T) {
	reg := NewRegistry(10)
	require.NoError(t, reg.Create("General", RoomPermanent, ""))

	rm, _ := reg.lookup("General")
	rm.lastActivity = time.Now().Add(-time.Hour)
	stale := rm.lastActivity

	reg.Touch("General")
	require.True(t, rm.lastActivity.After(stale))

	// Touching an unknown room is a no-op.
	reg.Touch("missing")
}
