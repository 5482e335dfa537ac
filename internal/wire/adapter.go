package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

// Inbound is one item yielded by the Adapter's lazy sequence: exactly one
// of Response, Event or Err is set. Err, when set, is terminal: no further
// items follow it.
type Inbound struct {
	Response *Response
	Event    *Event
	Err      error
}

// Adapter sends outgoing commands over a single Conn and exposes incoming
// frames as a channel. It assigns call-ids in strictly increasing order,
// starting at 1, and does not interpret payload semantics — correlating
// responses to callers is the Handler's job (internal/handler), not the
// adapter's.
type Adapter struct {
	conn Conn

	nextID  atomic.Int64
	writeMu sync.Mutex

	inbound chan Inbound
}

// NewAdapter wraps conn and starts the background read loop that feeds the
// channel returned by Inbound. The read loop exits, closing the channel
// after delivering a final error item, when Read fails.
func NewAdapter(conn Conn) *Adapter {
	a := &Adapter{
		conn:    conn,
		inbound: make(chan Inbound, 64),
	}
	go a.readLoop()
	return a
}

// Inbound returns the channel of incoming responses and events. It is
// closed after the terminal error item, if any.
func (a *Adapter) Inbound() <-chan Inbound {
	return a.inbound
}

// Submit marshals and sends a command, returning the call-id the caller
// should watch for in the Inbound sequence. sessionID may be empty for
// browser-level commands.
func (a *Adapter) Submit(ctx context.Context, method string, sessionID string, params json.RawMessage) (int64, error) {
	id := a.nextID.Add(1)
	req := Request{ID: id, Method: method, SessionID: sessionID}
	if len(params) > 0 {
		req.Params = params
	}

	b, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal %s request: %w", method, err)
	}

	a.writeMu.Lock()
	err = a.conn.Write(ctx, websocket.MessageText, b)
	a.writeMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("send %s request: %w", method, err)
	}
	return id, nil
}

// Close closes the underlying connection, which in turn ends the read loop.
func (a *Adapter) Close() error {
	return a.conn.Close(websocket.StatusNormalClosure, "adapter closing")
}

func (a *Adapter) readLoop() {
	defer close(a.inbound)
	ctx := context.Background()
	for {
		_, data, err := a.conn.Read(ctx)
		if err != nil {
			a.inbound <- Inbound{Err: err}
			return
		}

		resp, evt, err := parseFrame(data)
		if err != nil {
			// A malformed frame is not a transport failure; skip it and
			// keep reading rather than tearing down the connection over
			// one frame it could not interpret.
			continue
		}
		if resp != nil {
			a.inbound <- Inbound{Response: resp}
		} else {
			a.inbound <- Inbound{Event: evt}
		}
	}
}
