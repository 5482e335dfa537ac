package handler

import "fmt"

// TransportError wraps a failure from the connection adapter. It is
// terminal for the Handler: the run loop stops and propagates it to
// whoever is waiting on Handler.Done().
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// SerializationError means command params could not be encoded, or a
// response could not be decoded into the expected shape. Non-fatal: it
// resolves only the caller of the specific request that triggered it.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return fmt.Sprintf("serialization: %v", e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }

// ProtocolError means a response carried an `error` field, or neither
// `result` nor `error`.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol: %v", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// ErrNoResponse is the ProtocolError cause when a response frame carries
// neither a result nor an error.
var ErrNoResponse = fmt.Errorf("no response")

// TimeoutError means a pending command was evicted after exceeding the
// command timeout before a response arrived.
type TimeoutError struct {
	Method string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout waiting for %s response", e.Method) }

// NavigationError means the frame lifecycle reported a navigation failure
// (e.g. net::ERR_ABORTED) before the navigation could complete.
type NavigationError struct {
	Kind string
}

func (e *NavigationError) Error() string { return fmt.Sprintf("navigation failed: %s", e.Kind) }

// InternalInvariantError means the Handler observed state that should be
// impossible under its own bookkeeping invariants, such as a CreateTarget
// response referencing a target-id the registry has never seen.
type InternalInvariantError struct {
	Msg string
}

func (e *InternalInvariantError) Error() string { return fmt.Sprintf("internal invariant violated: %s", e.Msg) }
