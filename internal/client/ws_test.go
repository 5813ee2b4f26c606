package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/protocol"
)

// fakeController accepts one session, sends frames and forwards every frame
// it receives.
func fakeController(t *testing.T, frames ...[]byte) (string, <-chan []byte) {
	t.Helper()

	received := make(chan []byte, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, f)
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), received
}

// mustEncode unwraps an encoder result, failing the test on error.
func mustEncode(t *testing.T) func([]byte, error) []byte {
	return func(data []byte, err error) []byte {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
}

func TestListenAndReadLoop(t *testing.T) {
	must := mustEncode(t)
	snap := must(protocol.EncodeSnapshot(output.Vector{1}, 3))
	delta := must(protocol.EncodeDelta(7, 4))
	url, _ := fakeController(t, snap, []byte(`{"type":"bogus"}`), delta)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewWSClient(url)

	if _, ok := c.Listen(ctx)().(WSConnectedMsg); !ok {
		t.Fatal("Listen did not report a connection")
	}
	if !c.Connected() {
		t.Error("Connected() = false after connect")
	}

	msg := c.ReadLoop(ctx)()
	s, ok := msg.(WSSnapshotMsg)
	if !ok {
		t.Fatalf("first message = %T, want WSSnapshotMsg", msg)
	}
	if s.Snapshot.Seq != 3 || s.Snapshot.Lines.Hex() != "80" {
		t.Errorf("snapshot = %+v", s.Snapshot)
	}

	if _, ok := c.ReadLoop(ctx)().(WSBadFrameMsg); !ok {
		t.Error("unknown frame type should surface as WSBadFrameMsg")
	}

	msg = c.ReadLoop(ctx)()
	d, ok := msg.(WSDeltaMsg)
	if !ok {
		t.Fatalf("third message = %T, want WSDeltaMsg", msg)
	}
	if d.Delta.Index != 7 || d.Delta.Seq != 4 {
		t.Errorf("delta = %+v", d.Delta)
	}
}

func TestToggleSendsRequest(t *testing.T) {
	url, received := fakeController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewWSClient(url)

	if err := c.Toggle(1); err != ErrNotConnected {
		t.Errorf("Toggle before connect = %v, want ErrNotConnected", err)
	}

	c.Listen(ctx)()
	if err := c.Toggle(5); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	select {
	case data := <-received:
		index, err := protocol.DecodeToggle(data)
		if err != nil || index != 5 {
			t.Errorf("controller got %s (index %d, err %v)", data, index, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("controller never received the toggle")
	}
}

func TestDropEndsReadLoop(t *testing.T) {
	url, _ := fakeController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewWSClient(url)
	c.Listen(ctx)()

	done := make(chan interface{}, 1)
	go func() { done <- c.ReadLoop(ctx)() }()

	c.Drop()

	select {
	case msg := <-done:
		if _, ok := msg.(WSDisconnectedMsg); !ok {
			t.Errorf("ReadLoop returned %T, want WSDisconnectedMsg", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return after Drop")
	}
	if c.Connected() {
		t.Error("Connected() = true after Drop")
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewWSClient("ws://127.0.0.1:1/ws")

	done := make(chan interface{}, 1)
	go func() { done <- c.Listen(ctx)() }()
	cancel()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("Listen returned %T after cancel, want nil", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Listen kept retrying after cancel")
	}
}

func TestDeriveHTTPBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ws://pi.local:3000/ws", "http://pi.local:3000"},
		{"wss://panel.example/ws", "https://panel.example"},
		{"::bad", "http://127.0.0.1:3000"},
	}
	for _, tt := range tests {
		if got := DeriveHTTPBase(tt.in); got != tt.want {
			t.Errorf("DeriveHTTPBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
