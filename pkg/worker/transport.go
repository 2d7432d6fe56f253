package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rivetq/rivet/pkg/wire"
)

// SessionPath is the websocket endpoint for worker sessions.
const SessionPath = "/api/v1/worker/session"

// Stream is one open session stream. Send must not be called concurrently;
// the session's outbound pump is the single writer. Recv and Close may be
// called from other goroutines, and Close unblocks a pending Recv.
type Stream interface {
	Send(msg *wire.ClientMessage) error
	Recv() (*wire.ServerMessage, error)
	Close() error
}

// Transport dials session streams. It exists so the session engine stays
// independent of the underlying connection type; tests plug in in-process
// servers.
type Transport interface {
	Dial(ctx context.Context, serverURL string) (Stream, error)
}

// WebSocketTransport dials sessions over a websocket connection carrying
// JSON wire frames.
type WebSocketTransport struct {
	// HandshakeTimeout bounds the websocket upgrade. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// NewWebSocketTransport returns a websocket transport with defaults.
func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{HandshakeTimeout: 10 * time.Second}
}

// Dial connects to the server's session endpoint. http/https schemes are
// rewritten to ws/wss; a bare host gets the default session path.
func (t *WebSocketTransport) Dial(ctx context.Context, serverURL string) (Stream, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q in server url %q", u.Scheme, serverURL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = SessionPath
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", u.String(), err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return &wsStream{conn: conn}, nil
}

// wsStream adapts a websocket connection to the Stream interface.
type wsStream struct {
	conn *websocket.Conn

	// writeMu serializes Send against the close frame written by Close.
	writeMu sync.Mutex
	closed  bool
}

func (s *wsStream) Send(msg *wire.ClientMessage) error {
	data, err := wire.EncodeClient(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsStream) Recv() (*wire.ServerMessage, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return wire.DecodeServer(data)
}

func (s *wsStream) Close() error {
	s.writeMu.Lock()
	if !s.closed {
		s.closed = true
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	}
	s.writeMu.Unlock()
	return s.conn.Close()
}
