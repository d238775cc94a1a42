// Package testhelpers provides common utilities for testing the EmberChat
// relay: spinning up a full relay stack over httptest, dialing WebSocket
// connections, and exchanging wire envelopes with deadlines.
package testhelpers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"emberchat/internal/server"
)

// RelayStack bundles a running relay with its HTTP test server.
type RelayStack struct {
	Cfg    server.Config
	Relay  *server.Relay
	Hub    *server.Hub
	Server *httptest.Server
	WSURL  string
}

// NewRelayStack starts a complete relay over an httptest server. The default
// test configuration allows any origin; customize can tighten it or shorten
// the reaper timings. The stack is torn down automatically with the test.
func NewRelayStack(t *testing.T, customize func(cfg *server.Config)) *RelayStack {
	t.Helper()

	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{"*"}
	if customize != nil {
		customize(&cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	relay := server.NewRelay(cfg, log)
	hub := server.NewHub(relay, cfg, log)
	go hub.Run()

	ts := httptest.NewServer(server.SetupRoutes(hub))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(2 * time.Second)
	})

	return &RelayStack{
		Cfg:    cfg,
		Relay:  relay,
		Hub:    hub,
		Server: ts,
		WSURL:  "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

// Dial opens a WebSocket connection to the stack with the given Origin
// header and registers cleanup. It fails the test on handshake errors.
func Dial(t *testing.T, wsURL, origin string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one envelope to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	if err := conn.WriteJSON(server.Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// WaitForEvent reads frames until one carries the wanted event name,
// returning its payload. Unrelated events (presence updates, room listings)
// are skipped. It fails the test after the timeout.
func WaitForEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) json.RawMessage {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("Failed to set read deadline: %v", err)
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Timed out waiting for %q: %v", event, err)
		}
		var env server.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			t.Fatalf("Received unparseable frame %q: %v", payload, err)
		}
		if env.Event == event {
			return env.Data
		}
	}
}

// WaitForString waits for the event and decodes its payload as a string.
func WaitForString(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) string {
	t.Helper()

	var s string
	if err := json.Unmarshal(WaitForEvent(t, conn, event, timeout), &s); err != nil {
		t.Fatalf("Payload of %q is not a string: %v", event, err)
	}
	return s
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}
