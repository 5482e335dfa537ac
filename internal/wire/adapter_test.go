package wire

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// mockConn implements Conn for testing, queuing frames on a channel and
// recording what was written.
type mockConn struct {
	mu      sync.Mutex
	readCh  chan []byte
	written [][]byte
	closeCh chan struct{}
	closed  bool
}

func newMockConn(frames ...[]byte) *mockConn {
	m := &mockConn{
		readCh:  make(chan []byte, len(frames)+10),
		closeCh: make(chan struct{}),
	}
	for _, f := range frames {
		m.readCh <- f
	}
	return m
}

func (m *mockConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case msg, ok := <-m.readCh:
		if !ok {
			return 0, nil, errors.New("connection closed")
		}
		return websocket.MessageText, msg, nil
	case <-m.closeCh:
		return 0, nil, errors.New("connection closed")
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (m *mockConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, data)
	return nil
}

func (m *mockConn) Close(code websocket.StatusCode, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closeCh)
	}
	return nil
}

func (m *mockConn) getWritten() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

func TestAdapter_Submit_AssignsIncreasingCallIDs(t *testing.T) {
	conn := newMockConn()
	a := NewAdapter(conn)
	defer a.Close()

	ctx := context.Background()
	first, err := a.Submit(ctx, "Browser.getVersion", "", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := a.Submit(ctx, "Browser.getVersion", "", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("call ids = %d, %d, want 1, 2", first, second)
	}

	written := conn.getWritten()
	if len(written) != 2 {
		t.Fatalf("len(written) = %d, want 2", len(written))
	}
	var req Request
	if err := json.Unmarshal(written[0], &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.Method != "Browser.getVersion" {
		t.Errorf("req.Method = %q, want Browser.getVersion", req.Method)
	}
}

func TestAdapter_Inbound_ClassifiesResponsesAndEvents(t *testing.T) {
	resp, _ := json.Marshal(Response{ID: 1, Result: json.RawMessage(`{"ok":true}`)})
	evt, _ := json.Marshal(Event{Method: "Target.targetCreated", Params: json.RawMessage(`{}`)})

	conn := newMockConn(resp, evt)
	a := NewAdapter(conn)
	defer a.Close()

	var gotResp, gotEvt bool
	for i := 0; i < 2; i++ {
		select {
		case item := <-a.Inbound():
			if item.Response != nil {
				gotResp = true
				if item.Response.ID != 1 {
					t.Errorf("Response.ID = %d, want 1", item.Response.ID)
				}
			}
			if item.Event != nil {
				gotEvt = true
				if item.Event.Method != "Target.targetCreated" {
					t.Errorf("Event.Method = %q, want Target.targetCreated", item.Event.Method)
				}
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for inbound item")
		}
	}
	if !gotResp || !gotEvt {
		t.Errorf("gotResp=%v gotEvt=%v, want both true", gotResp, gotEvt)
	}
}

func TestAdapter_Inbound_TerminatesOnReadError(t *testing.T) {
	conn := newMockConn()
	a := NewAdapter(conn)

	go func() {
		time.Sleep(10 * time.Millisecond)
		conn.Close(websocket.StatusNormalClosure, "test teardown")
	}()

	select {
	case item, ok := <-a.Inbound():
		if !ok {
			t.Fatal("channel closed before delivering terminal error")
		}
		if item.Err == nil {
			t.Errorf("item.Err = nil, want non-nil terminal error")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for terminal error")
	}

	select {
	case _, ok := <-a.Inbound():
		if ok {
			t.Error("expected channel to be closed after terminal error")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestAdapter_Inbound_SkipsMalformedFrames(t *testing.T) {
	resp, _ := json.Marshal(Response{ID: 7})
	conn := newMockConn([]byte(`not json`), resp)
	a := NewAdapter(conn)
	defer a.Close()

	select {
	case item := <-a.Inbound():
		if item.Response == nil || item.Response.ID != 7 {
			t.Errorf("expected well-formed response with ID 7, got %+v", item)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for well-formed response")
	}
}
