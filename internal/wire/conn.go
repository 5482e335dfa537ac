// Package wire implements the connection adapter: the low-level duplex
// transport that sends outbound CDP commands and yields inbound frames,
// with no interpretation of payload semantics. Correlating a response to
// the caller that issued it, and making sense of events, is the Handler's
// job, not this package's.
package wire

import (
	"context"

	"github.com/coder/websocket"
)

// Conn abstracts a duplex message transport, typically a WebSocket to a
// browser's DevTools endpoint. It exists as an interface so tests can
// substitute a fake connection.
type Conn interface {
	// Read reads one message from the connection.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes one message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close closes the connection with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

// Dial connects to a CDP WebSocket endpoint and wraps it as a Conn.
func Dial(ctx context.Context, wsURL string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
