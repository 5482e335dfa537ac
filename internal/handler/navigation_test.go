package handler

import (
	"encoding/json"
	"testing"

	"github.com/cdpcore/cdpcore/internal/protocol"
)

func navResultJSON(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(protocol.NavigateResult{FrameID: "F1"})
	if err != nil {
		t.Fatalf("marshal NavigateResult: %v", err)
	}
	return raw
}

func TestNavigationCoordinator_ResponseThenLifecycle(t *testing.T) {
	c := newNavigationCoordinator()
	navID := c.allocateID()

	var got NavigateOutcome
	done := make(chan struct{})
	c.begin(navID, func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
		got = NavigateOutcome{Result: NavigationResult{Response: response, Request: request}, Err: err}
		close(done)
	})

	c.onResponse(navID, navResultJSON(t), nil)
	select {
	case <-done:
		t.Fatal("resolved before lifecycle signal arrived")
	default:
	}

	c.onLifecycleCompleted(NavOutcome{NavID: navID, Ok: true})
	<-done
	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
}

func TestNavigationCoordinator_LifecycleThenResponse(t *testing.T) {
	c := newNavigationCoordinator()
	navID := c.allocateID()

	done := make(chan NavigateOutcome, 1)
	c.begin(navID, func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
		done <- NavigateOutcome{Result: NavigationResult{Response: response, Request: request}, Err: err}
	})

	c.onLifecycleCompleted(NavOutcome{NavID: navID, Ok: true})
	select {
	case <-done:
		t.Fatal("resolved before command response arrived")
	default:
	}

	c.onResponse(navID, navResultJSON(t), nil)
	out := <-done
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
}

func TestNavigationCoordinator_LifecycleFailureWinsOverLateResponse(t *testing.T) {
	c := newNavigationCoordinator()
	navID := c.allocateID()

	done := make(chan NavigateOutcome, 1)
	c.begin(navID, func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
		done <- NavigateOutcome{Err: err}
	})

	c.onLifecycleCompleted(NavOutcome{NavID: navID, Ok: false, Kind: "ABORTED"})
	out := <-done
	if out.Err == nil {
		t.Fatal("expected navigation failure error")
	}
	if _, isNavErr := out.Err.(*NavigationError); !isNavErr {
		t.Errorf("err = %T, want *NavigationError", out.Err)
	}

	c.onResponse(navID, navResultJSON(t), nil)
	select {
	case extra := <-done:
		t.Errorf("late response resolved the navigation again: %+v", extra)
	default:
	}
}

func TestNavigationCoordinator_AllocateIDSkipsInUse(t *testing.T) {
	c := newNavigationCoordinator()
	c.nextID = 5
	c.inProgress[5] = &navigationInProgress{}

	id := c.allocateID()
	if id == 5 {
		t.Error("allocateID returned an id already in progress")
	}
}

func TestNavigationCoordinator_Abandon(t *testing.T) {
	c := newNavigationCoordinator()
	navID := c.allocateID()

	done := make(chan NavigateOutcome, 1)
	c.begin(navID, func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
		done <- NavigateOutcome{Err: err}
	})

	c.abandon([]uint64{navID}, &TransportError{})
	out := <-done
	if out.Err == nil {
		t.Fatal("expected abandon to deliver an error")
	}
	if len(c.inProgress) != 0 {
		t.Errorf("len(inProgress) = %d, want 0 after abandon", len(c.inProgress))
	}
}
