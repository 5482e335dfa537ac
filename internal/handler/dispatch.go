package handler

import (
	"encoding/json"
	"fmt"

	"github.com/cdpcore/cdpcore/internal/protocol"
	"github.com/cdpcore/cdpcore/internal/wire"
)

// responseOutcome classifies a raw response frame into either its result
// payload or a ProtocolError, matching the rule that a response carries
// exactly one of a result and an error.
func responseOutcome(resp *wire.Response) (json.RawMessage, error) {
	if resp.Error != nil {
		return nil, &ProtocolError{Err: fmt.Errorf("%s", resp.Error.Message)}
	}
	if resp.Result == nil {
		return nil, &ProtocolError{Err: ErrNoResponse}
	}
	return resp.Result, nil
}

// dispatchResponse resolves whatever is waiting on resp.ID according to
// the kind of request it was issued for.
func (h *Handler) dispatchResponse(resp *wire.Response) {
	entry, ok := h.pending.take(resp.ID)
	if !ok {
		return
	}

	switch entry.kind {
	case pendingCreateTarget:
		h.dispatchCreateTargetResponse(entry, resp)
	case pendingNavigate:
		raw, err := responseOutcome(resp)
		h.navigations.onResponse(entry.navID, raw, err)
	case pendingExternalCommand:
		raw, err := responseOutcome(resp)
		if entry.externalReply != nil {
			entry.externalReply <- CommandResult{Result: raw, Err: err}
			close(entry.externalReply)
		}
	case pendingInternalCommand:
		if _, err := responseOutcome(resp); err != nil {
			h.teardownTarget(entry.targetID, fmt.Errorf("internal command %s failed: %w", entry.method, err))
		}
	}
}

func (h *Handler) dispatchCreateTargetResponse(entry pendingEntry, resp *wire.Response) {
	raw, err := responseOutcome(resp)
	if err != nil {
		h.replyCreatePage(entry.createTargetReply, nil, err)
		return
	}

	var result protocol.CreateTargetResult
	if err := json.Unmarshal(raw, &result); err != nil {
		h.replyCreatePage(entry.createTargetReply, nil, &SerializationError{Err: err})
		return
	}

	t, ok := h.targets.get(result.TargetID)
	if !ok {
		// The targetCreated event that should have registered this target
		// before its createTarget response arrived never did. Surface it
		// as a structured error instead of trusting ordering blindly.
		h.replyCreatePage(entry.createTargetReply, nil, &InternalInvariantError{
			Msg: fmt.Sprintf("created target %s not present in registry", result.TargetID),
		})
		return
	}
	t.pageReply = entry.createTargetReply
	if t.SessionID != "" && !t.pageNotified {
		// attachedToTarget already arrived for this target before its own
		// createTarget response did; notify immediately instead of waiting
		// for an attach event that has already happened.
		t.pageNotified = true
		t.page = &Page{TargetID: t.ID, SessionID: t.SessionID}
		h.replyCreatePage(t.pageReply, t.page, nil)
	}
}

func (h *Handler) replyCreatePage(reply chan<- CreatePageResult, page *Page, err error) {
	if reply == nil {
		return
	}
	reply <- CreatePageResult{Page: page, Err: err}
	close(reply)
}

// dispatchEvent routes an inbound event either to the target attached to
// its session, or to the registry/session bookkeeping switch for
// session-less Target domain events.
func (h *Handler) dispatchEvent(evt *wire.Event) {
	if evt.SessionID != "" {
		h.dispatchSessionEvent(evt)
		return
	}

	switch evt.Method {
	case protocol.EventTargetCreated:
		h.onTargetCreated(evt)
	case protocol.EventAttachedToTarget:
		h.onAttachedToTarget(evt)
	case protocol.EventTargetDestroyed:
		h.onTargetDestroyed(evt)
	case protocol.EventDetachedFromTarget:
		h.onDetachedFromTarget(evt)
	}
}

func (h *Handler) dispatchSessionEvent(evt *wire.Event) {
	targetID, ok := h.sessions.targetFor(evt.SessionID)
	if !ok {
		return
	}
	t, ok := h.targets.get(targetID)
	if !ok {
		return
	}

	switch evt.Method {
	case protocol.EventLifecycleEvent:
		var lc protocol.LifecycleEvent
		if err := json.Unmarshal(evt.Params, &lc); err != nil {
			return
		}
		t.onLifecycleEvent(lc.Name)
	case protocol.EventLoadingFailed:
		var lf protocol.LoadingFailedEvent
		if err := json.Unmarshal(evt.Params, &lf); err != nil {
			return
		}
		kind := lf.ErrorText
		if kind == "" {
			kind = "ABORTED"
		}
		t.onNavigationFailed(kind)
	case protocol.EventRequestWillBeSent:
		var rs protocol.RequestWillBeSentEvent
		if err := json.Unmarshal(evt.Params, &rs); err != nil {
			return
		}
		t.onNetworkRequest(rs)
	}
}

func (h *Handler) onTargetCreated(evt *wire.Event) {
	var e protocol.TargetCreatedEvent
	if err := json.Unmarshal(evt.Params, &e); err != nil {
		return
	}
	if _, exists := h.targets.get(e.TargetInfo.TargetID); exists {
		return
	}
	t := newTarget(e.TargetInfo.TargetID, e.TargetInfo.Type)
	h.targets.add(t)

	if e.TargetInfo.Type != "page" {
		return
	}
	h.submitAttachToTarget(t.ID)
}

func (h *Handler) onAttachedToTarget(evt *wire.Event) {
	var e protocol.AttachedToTargetEvent
	if err := json.Unmarshal(evt.Params, &e); err != nil {
		return
	}
	t, ok := h.targets.get(e.TargetInfo.TargetID)
	if !ok {
		t = newTarget(e.TargetInfo.TargetID, e.TargetInfo.Type)
		h.targets.add(t)
	}
	h.sessions.attach(e.SessionID, t.ID)
	if page := t.attach(e.SessionID); page != nil {
		h.replyCreatePage(t.pageReply, page, nil)
	}
}

func (h *Handler) onTargetDestroyed(evt *wire.Event) {
	var e protocol.TargetDestroyedEvent
	if err := json.Unmarshal(evt.Params, &e); err != nil {
		return
	}
	h.teardownTarget(e.TargetID, fmt.Errorf("target %s destroyed", e.TargetID))
}

func (h *Handler) onDetachedFromTarget(evt *wire.Event) {
	var e protocol.DetachedFromTargetEvent
	if err := json.Unmarshal(evt.Params, &e); err != nil {
		return
	}
	if targetID, ok := h.sessions.targetFor(e.SessionID); ok {
		if t, ok := h.targets.get(targetID); ok && t.SessionID == e.SessionID {
			t.SessionID = ""
		}
	}
	h.sessions.detach(e.SessionID)
}

// teardownTarget removes a target from the registry, detaches its
// sessions and fails any navigation still in flight for it. It is the
// uniform response to target loss, whether reported by targetDestroyed or
// triggered by an internal command timing out.
func (h *Handler) teardownTarget(targetID string, cause error) {
	t, ok := h.targets.get(targetID)
	if !ok {
		return
	}
	if navID, active := t.activeNavID(); active {
		h.navigations.abandon([]uint64{navID}, cause)
	}
	h.sessions.detachAllFor(targetID)
	h.targets.remove(targetID)
}
