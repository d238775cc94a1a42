// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// WebSocketHandler upgrades the HTTP connection, assigns the connection its
// opaque identifier, and hands the client to the hub. The hub launches the
// pump goroutines and places the connection into the default room.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, h, r.RemoteAddr)
	h.register <- client
}

// HealthHandler provides a simple health check endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "EmberChat relay is running!")
}

// TestPageHandler serves an HTML page for exercising the relay by hand:
// connect, list rooms, create and join rooms, and exchange messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>EmberChat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #b3410a;
            color: white;
            border: none;
            cursor: pointer;
        }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>EmberChat Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
        <button onclick="request('get_available_rooms', {})">List rooms</button>
    </div>
    <div style="margin-top:10px">
        <input type="text" id="roomInput" placeholder="Room name...">
        <input type="text" id="passwordInput" placeholder="Password (optional)">
        <button onclick="createRoom()">Create</button>
        <button onclick="joinRoom()">Join</button>
    </div>
    <div style="margin-top:10px">
        <input type="text" id="nickInput" placeholder="Nickname...">
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        let currentRoom = 'lobby';
        const messagesDiv = document.getElementById('messages');
        const statusDiv = document.getElementById('status');

        function addLine(text, color) {
            const el = document.createElement('div');
            el.style.color = color || 'gray';
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function request(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: event, data: data}));
            }
        }

        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = function() {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
            };
            ws.onmessage = function(e) {
                const env = JSON.parse(e.data);
                if (env.event === 'new_message') {
                    const m = env.data;
                    addLine('[' + m.roomName + '] ' + (m.nickname || m.sender) + ': ' + m.message, 'green');
                } else if (env.event === 'joined_room') {
                    currentRoom = env.data;
                    addLine('Joined room ' + env.data, 'blue');
                } else {
                    addLine(env.event + ': ' + JSON.stringify(env.data));
                }
            };
            ws.onclose = function() {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                ws = null;
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) { ws.close(); } else { connect(); }
        }

        function createRoom() {
            request('create_room', {
                roomName: document.getElementById('roomInput').value,
                roomType: 'ephemeral',
                password: document.getElementById('passwordInput').value
            });
        }

        function joinRoom() {
            request('join_room', {
                roomName: document.getElementById('roomInput').value,
                password: document.getElementById('passwordInput').value
            });
        }

        function sendMessage() {
            request('send_message', {
                roomName: currentRoom,
                message: document.getElementById('messageInput').value,
                nickname: document.getElementById('nickInput').value
            });
            document.getElementById('messageInput').value = '';
        }
    </script>
</body>
</html>`
	_, _ = fmt.Fprint(w, html)
}
