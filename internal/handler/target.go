package handler

import (
	"encoding/json"
	"fmt"

	"github.com/cdpcore/cdpcore/internal/protocol"
)

type navState int

const (
	navIdle navState = iota
	navRequested
	navInFlight
)

// NavOutcome is a completed or failed navigation, ready to be joined with
// its command response by the navigation coordinator.
type NavOutcome struct {
	NavID   uint64
	Ok      bool
	Kind    string // failure reason, empty when Ok
	Request *protocol.RequestWillBeSentEvent
}

// targetEvent is the tagged union a target's poll can emit. chromiumoxide
// also has variants for a timed-out internally-issued request and for a
// client message forwarded from a live page handle; this core folds
// request-timeout handling into the pending table's eviction policy
// (handler.go) and never forwards page-level client messages, since page
// ergonomics live above this core, so those two variants have no
// counterpart here.
type targetEvent interface {
	isTargetEvent()
}

// requestEvent asks the Handler to submit an internal setup command on
// the target's behalf (Page.enable, Network.enable,
// Page.setLifecycleEventsEnabled).
type requestEvent struct{ Req OutboundRequest }

func (requestEvent) isTargetEvent() {}

// navigationRequestEvent asks the Handler to submit the Page.navigate
// command this target has queued.
type navigationRequestEvent struct {
	NavID uint64
	Req   OutboundRequest
}

func (navigationRequestEvent) isTargetEvent() {}

// navigationResultEvent carries a completed or failed navigation back to
// the navigation coordinator.
type navigationResultEvent struct{ Outcome NavOutcome }

func (navigationResultEvent) isTargetEvent() {}

// target is one attached or attaching browsing context. Its own run of
// setup commands and navigation state are queued here and drained one
// item per poll call, so a single target never starves the others.
type target struct {
	ID        string
	Type      string
	SessionID string

	outbox []OutboundRequest

	navState        navState
	navID           uint64
	navReq          OutboundRequest
	navDone         []NavOutcome
	capturedRequest *protocol.RequestWillBeSentEvent

	page        *Page
	pageReply   chan<- CreatePageResult
	pageNotified bool
}

func newTarget(id, typ string) *target {
	return &target{ID: id, Type: typ}
}

// onAttached records the session a target was attached under and queues
// the per-session setup commands the Handler submits before the target's
// page is usable.
func (t *target) onAttached(sessionID string) {
	t.SessionID = sessionID
	t.outbox = append(t.outbox,
		OutboundRequest{Method: protocol.MethodEnable, SessionID: sessionID},
		OutboundRequest{Method: protocol.MethodNetworkEnable, SessionID: sessionID},
		mustLifecycleEnable(sessionID),
	)
}

func mustLifecycleEnable(sessionID string) OutboundRequest {
	params, err := json.Marshal(protocol.SetLifecycleEventsEnabledParams{Enabled: true})
	if err != nil {
		panic(err) // cannot fail: struct is a single bool field
	}
	return OutboundRequest{Method: protocol.MethodSetLifecycleEventsEnabled, SessionID: sessionID, Params: params}
}

// attach records the session a target was attached under, queues its
// setup commands, and returns a page handle if a CreatePage caller is
// waiting on this target and has not already been notified.
func (t *target) attach(sessionID string) *Page {
	t.onAttached(sessionID)
	if t.pageReply == nil || t.pageNotified {
		return nil
	}
	t.pageNotified = true
	t.page = &Page{TargetID: t.ID, SessionID: sessionID}
	return t.page
}

// activeNavID reports the navigation-id currently requested or in flight
// for this target, if any.
func (t *target) activeNavID() (uint64, bool) {
	if t.navState == navIdle {
		return 0, false
	}
	return t.navID, true
}

// poll returns the next event this target has ready, if any. It drains
// exactly one item, favoring queued setup/navigation requests over
// navigation results so a caller's command reaches the wire before its
// outcome is reported.
func (t *target) poll() (targetEvent, bool) {
	if len(t.outbox) > 0 {
		req := t.outbox[0]
		t.outbox = t.outbox[1:]
		return requestEvent{Req: req}, true
	}
	if t.navState == navRequested {
		t.navState = navInFlight
		return navigationRequestEvent{NavID: t.navID, Req: t.navReq}, true
	}
	if len(t.navDone) > 0 {
		out := t.navDone[0]
		t.navDone = t.navDone[1:]
		return navigationResultEvent{Outcome: out}, true
	}
	return nil, false
}

// beginNavigation queues a Page.navigate command. Only one navigation may
// be in flight per target at a time; a second call before the first
// resolves is rejected rather than queued, since chromiumoxide and the
// CDP navigate command itself give no way to distinguish which of two
// concurrent navigations a given lifecycle event belongs to.
func (t *target) beginNavigation(navID uint64, req OutboundRequest) error {
	if t.navState != navIdle {
		return fmt.Errorf("target %s: navigation already in progress", t.ID)
	}
	t.navID = navID
	t.navReq = req
	t.navState = navRequested
	t.capturedRequest = nil
	return nil
}

// onNetworkRequest observes a Network.requestWillBeSent event for this
// target's session and, if a navigation is pending or in flight, records
// the first main-frame document request it sees as that navigation's HTTP
// request metadata.
func (t *target) onNetworkRequest(evt protocol.RequestWillBeSentEvent) {
	if t.navState == navIdle {
		return
	}
	if evt.Type != "Document" || t.capturedRequest != nil {
		return
	}
	req := evt
	t.capturedRequest = &req
}

// onLifecycleEvent observes a Page.lifecycleEvent for this target's
// session and, if it is a terminal event for an in-flight navigation,
// queues a successful outcome.
func (t *target) onLifecycleEvent(name string) {
	if t.navState != navInFlight {
		return
	}
	if !protocol.LifecycleTerminal(name) {
		return
	}
	t.navDone = append(t.navDone, NavOutcome{NavID: t.navID, Ok: true, Request: t.capturedRequest})
	t.navState = navIdle
}

// onNavigationFailed queues a failed outcome for whatever navigation is
// currently requested or in flight.
func (t *target) onNavigationFailed(kind string) {
	if t.navState == navIdle {
		return
	}
	t.navDone = append(t.navDone, NavOutcome{NavID: t.navID, Ok: false, Kind: kind, Request: t.capturedRequest})
	t.navState = navIdle
}

// targetRegistry owns every known target, keyed by id, with a stable
// iteration order. chromiumoxide detaches a target from its backing Vec
// with swap_remove before polling it, and reinserts it afterward, because
// Rust's borrow checker will not allow a live borrow of the Vec across a
// call that might itself mutate it. Go has no such restriction, so this
// registry polls targets in place; the reverse iteration order is kept
// only because it is what the upstream design relies on for newest-first
// responsiveness, not because anything here requires it.
type targetRegistry struct {
	ids   []string
	byID  map[string]*target
}

func newTargetRegistry() *targetRegistry {
	return &targetRegistry{byID: make(map[string]*target)}
}

func (r *targetRegistry) add(t *target) {
	r.byID[t.ID] = t
	r.ids = append(r.ids, t.ID)
}

func (r *targetRegistry) remove(id string) {
	delete(r.byID, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			return
		}
	}
}

func (r *targetRegistry) get(id string) (*target, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *targetRegistry) all() []*target {
	out := make([]*target, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// pollNext drains the next ready event from the targets that have one,
// scanning newest-created first.
func (r *targetRegistry) pollNext() (string, targetEvent, bool) {
	for i := len(r.ids) - 1; i >= 0; i-- {
		id := r.ids[i]
		t := r.byID[id]
		if ev, ok := t.poll(); ok {
			return id, ev, true
		}
	}
	return "", nil, false
}
