package wire

import (
	"encoding/json"
	"fmt"
)

// Request is a CDP command request, framed as {id, method, params, sessionId?}.
type Request struct {
	ID        int64       `json:"id"`
	Method    string      `json:"method"`
	Params    interface{} `json:"params,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}

// Response is a CDP command response, framed as {id, result?, error?}.
// Exactly one of Result/Error is present; a response with neither is a
// protocol error (see handler.ErrNoResponse).
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Event is a CDP event notification, framed as {method, params, sessionId?}.
type Event struct {
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	SessionID string          `json:"sessionId,omitempty"`
}

// Error is the error payload embedded in a CDP response.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// envelope is used internally to classify an incoming frame before
// committing to the Response or Event shape.
type envelope struct {
	ID        int64           `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// parseFrame classifies a raw inbound frame as a Response (has an id, no
// method) or an Event (has a method). Frames matching neither shape are a
// parse error; a zero id counts as absent, since call-ids start at 1.
func parseFrame(data []byte) (*Response, *Event, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, nil, fmt.Errorf("parse CDP frame: %w", err)
	}

	if e.Method == "" {
		if e.ID == 0 {
			return nil, nil, fmt.Errorf("parse CDP frame: neither id nor method present")
		}
		return &Response{ID: e.ID, Result: e.Result, Error: e.Error}, nil, nil
	}
	return nil, &Event{Method: e.Method, Params: e.Params, SessionID: e.SessionID}, nil
}
