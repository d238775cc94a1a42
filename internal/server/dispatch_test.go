package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// newWiredClient builds a client backed by an in-memory send buffer, already
// registered with the hub and connected to the relay.
func newWiredClient(t *testing.T, connID string) (*Relay, *Client) {
	t.Helper()
	cfg := DefaultConfig()
	relay := NewRelay(cfg, testLogger())
	hub := NewHub(relay, cfg, testLogger())

	client := NewClient(connID, nil, hub, "test-addr")
	hub.clients[client] = true
	relay.Connect(connID, client)
	return relay, client
}

// drainEnvelopes empties the client's send buffer and decodes every frame.
func drainEnvelopes(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case payload := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(payload, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventNames(envs []Envelope) []string {
	names := make([]string, len(envs))
	for i, env := range envs {
		names[i] = env.Event
	}
	return names
}

func roomErrors(t *testing.T, envs []Envelope) []string {
	t.Helper()
	var out []string
	for _, env := range envs {
		if env.Event != eventRoomError {
			continue
		}
		var notice string
		require.NoError(t, json.Unmarshal(env.Data, &notice))
		out = append(out, notice)
	}
	return out
}

func mustEnvelope(t *testing.T, event string, data any) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Envelope{Event: event, Data: raw}
}

func TestDispatchCreateJoinSendFlow(t *testing.T) {
	relay, client := newWiredClient(t, "conn-1")
	drainEnvelopes(t, client)

	client.dispatch(mustEnvelope(t, eventCreateRoom, CreateRoomRequest{RoomName: "den"}))
	roomName, _ := relay.RoomOf("conn-1")
	require.Equal(t, "den", roomName)

	client.dispatch(mustEnvelope(t, eventSendMessage, SendMessageRequest{
		RoomName: "den",
		Message:  "hello",
		Nickname: "Ann",
	}))

	envs := drainEnvelopes(t, client)
	names := eventNames(envs)
	require.Contains(t, names, eventRoomCreated)
	require.Contains(t, names, eventJoinedRoom)
	require.Contains(t, names, eventAvailableRooms)
	require.Contains(t, names, eventNewMessage)
	require.Empty(t, roomErrors(t, envs))
}

func TestDispatchReportsRelayErrors(t *testing.T) {
	tests := []struct {
		name       string
		env        func(t *testing.T) Envelope
		wantNotice string
	}{
		{
			name: "join unknown room",
			env: func(t *testing.T) Envelope {
				return mustEnvelope(t, eventJoinRoom, JoinRoomRequest{RoomName: "nowhere"})
			},
			wantNotice: "No room exists with this name.",
		},
		{
			name: "send to unknown room",
			env: func(t *testing.T) Envelope {
				return mustEnvelope(t, eventSendMessage, SendMessageRequest{RoomName: "nowhere", Message: "hi"})
			},
			wantNotice: "No room exists with this name.",
		},
		{
			name: "history of unknown room",
			env: func(t *testing.T) Envelope {
				return mustEnvelope(t, eventGetMessageHistory, HistoryRequest{RoomName: "nowhere"})
			},
			wantNotice: "No room exists with this name.",
		},
		{
			name: "duplicate create",
			env: func(t *testing.T) Envelope {
				return mustEnvelope(t, eventCreateRoom, CreateRoomRequest{RoomName: "General"})
			},
			wantNotice: "A room with this name already exists.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newWiredClient(t, "conn-1")
			drainEnvelopes(t, client)

			client.dispatch(tt.env(t))

			notices := roomErrors(t, drainEnvelopes(t, client))
			require.Equal(t, []string{tt.wantNotice}, notices)
		})
	}
}

func TestDispatchWrongPasswordNotice(t *testing.T) {
	relay, client := newWiredClient(t, "conn-1")
	require.NoError(t, relay.CreateRoom("conn-1", CreateRoomRequest{RoomName: "vault", Password: "x"}))
	require.NoError(t, relay.JoinRoom("conn-1", "lobby", ""))
	drainEnvelopes(t, client)

	client.dispatch(mustEnvelope(t, eventJoinRoom, JoinRoomRequest{RoomName: "vault", Password: "y"}))

	notices := roomErrors(t, drainEnvelopes(t, client))
	require.Equal(t, []string{"Incorrect password."}, notices)
	roomName, _ := relay.RoomOf("conn-1")
	require.Equal(t, "lobby", roomName)
}

func TestDispatchValidatesPayloads(t *testing.T) {
	_, client := newWiredClient(t, "conn-1")
	drainEnvelopes(t, client)

	// Missing required roomName.
	client.dispatch(mustEnvelope(t, eventJoinRoom, map[string]string{"password": "x"}))
	// Malformed JSON payload.
	client.dispatch(Envelope{Event: eventSendMessage, Data: json.RawMessage(`{"roomName":`)})

	notices := roomErrors(t, drainEnvelopes(t, client))
	require.Equal(t, []string{"Invalid request payload.", "Invalid request payload."}, notices)
}

func TestDispatchUnsupportedEvent(t *testing.T) {
	_, client := newWiredClient(t, "conn-1")
	drainEnvelopes(t, client)

	client.dispatch(Envelope{Event: "upgrade_to_admin"})

	notices := roomErrors(t, drainEnvelopes(t, client))
	require.Equal(t, []string{"Unsupported event."}, notices)
}

func TestDispatchRoomListRequest(t *testing.T) {
	_, client := newWiredClient(t, "conn-1")
	drainEnvelopes(t, client)

	client.dispatch(Envelope{Event: eventGetAvailableRooms})

	envs := drainEnvelopes(t, client)
	require.Len(t, envs, 1)
	require.Equal(t, eventAvailableRooms, envs[0].Event)

	var views []RoomView
	require.NoError(t, json.Unmarshal(envs[0].Data, &views))
	require.Len(t, views, 4)
	require.Equal(t, "lobby", views[0].Name)
}
