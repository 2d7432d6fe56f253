package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rivetq/rivet/pkg/wire"
)

// sessionServer upgrades one connection and echoes a heartbeat_ack for every
// frame it reads.
func sessionServer(t *testing.T) (*httptest.Server, chan *wire.ClientMessage) {
	t.Helper()
	received := make(chan *wire.ClientMessage, 16)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SessionPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := wire.DecodeClient(data)
			if err != nil {
				t.Errorf("server decode: %v", err)
				return
			}
			received <- msg
			ack, _ := wire.EncodeServer(&wire.ServerMessage{
				Type:         wire.KindHeartbeatAck,
				HeartbeatAck: &wire.HeartbeatAck{},
			})
			if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	srv, received := sessionServer(t)

	// http scheme is rewritten to ws and the default path is appended.
	tr := NewWebSocketTransport()
	stream, err := tr.Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stream.Close()

	hello := wire.NewHello(&wire.Hello{WorkerID: "w1", Queues: []string{"q"}, Concurrency: 1})
	if err := stream.Send(hello); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Type != wire.KindHello || msg.Hello.WorkerID != "w1" {
			t.Errorf("server received %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the hello frame")
	}

	reply, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if reply.Type != wire.KindHeartbeatAck {
		t.Errorf("reply kind = %s, want heartbeat_ack", reply.Type)
	}
}

func TestWebSocketTransportCloseUnblocksRecv(t *testing.T) {
	srv, _ := sessionServer(t)
	tr := NewWebSocketTransport()
	stream, err := tr.Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	recvErr := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		recvErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	stream.Close()

	select {
	case err := <-recvErr:
		if err == nil {
			t.Fatal("Recv returned a frame after Close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Recv still blocked after Close")
	}
}

func TestWebSocketTransportRejectsScheme(t *testing.T) {
	tr := NewWebSocketTransport()
	if _, err := tr.Dial(context.Background(), "ftp://example.com"); err == nil {
		t.Fatal("expected an error for an unsupported scheme")
	}
}

func TestWebSocketTransportDialFailure(t *testing.T) {
	tr := &WebSocketTransport{HandshakeTimeout: 200 * time.Millisecond}
	if _, err := tr.Dial(context.Background(), "ws://127.0.0.1:1"); err == nil {
		t.Fatal("expected a dial error for a closed port")
	}
}
