package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cdpcore/cdpcore/internal/protocol"
)

// NavigationResult is what a navigation resolves to once both its command
// reply and its frame lifecycle result have arrived: the raw Page.navigate
// result, and the HTTP request CDP reported for the navigation's
// top-level document, if one was observed before the result was joined.
// Request is nil for same-document navigations and for navigations whose
// request event arrives after the join already completed.
type NavigationResult struct {
	Response json.RawMessage
	Request  *protocol.RequestWillBeSentEvent
}

// NavigateMessage asks the Handler to navigate an existing session and
// deliver the joined command-and-lifecycle result to Reply. It exists
// alongside the generic CommandMessage navigate path because it reports
// the extra request metadata a plain CDP client has no way to ask for.
type NavigateMessage struct {
	SessionID string
	URL       string
	Reply     chan<- NavigateOutcome
}

func (NavigateMessage) isHandlerMessage() {}

// NavigateOutcome is delivered on NavigateMessage.Reply.
type NavigateOutcome struct {
	Result NavigationResult
	Err    error
}

func (h *Handler) handleNavigateMessage(m NavigateMessage) {
	targetID, ok := h.sessions.targetFor(m.SessionID)
	if !ok {
		h.replyNavigate(m.Reply, &ProtocolError{Err: fmt.Errorf("unknown session %q", m.SessionID)})
		return
	}
	t, ok := h.targets.get(targetID)
	if !ok {
		h.replyNavigate(m.Reply, &InternalInvariantError{Msg: fmt.Sprintf("session %s has no registered target", m.SessionID)})
		return
	}

	params, err := json.Marshal(protocol.NavigateParams{URL: m.URL})
	if err != nil {
		h.replyNavigate(m.Reply, &SerializationError{Err: err})
		return
	}

	navID := h.navigations.allocateID()
	req := OutboundRequest{Method: protocol.MethodNavigate, SessionID: m.SessionID, Params: params}
	if err := t.beginNavigation(navID, req); err != nil {
		h.replyNavigate(m.Reply, err)
		return
	}

	reply := m.Reply
	h.navigations.begin(navID, func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
		if reply == nil {
			return
		}
		if err != nil {
			reply <- NavigateOutcome{Err: err}
		} else {
			reply <- NavigateOutcome{Result: NavigationResult{Response: response, Request: request}}
		}
		close(reply)
	})
}

func (h *Handler) replyNavigate(reply chan<- NavigateOutcome, err error) {
	if reply == nil {
		return
	}
	reply <- NavigateOutcome{Err: err}
	close(reply)
}

// Navigate drives a session's target to url and waits for both the
// Page.navigate command and the resulting frame lifecycle to complete.
func (h *Handler) Navigate(ctx context.Context, sessionID, url string) (NavigationResult, error) {
	reply := make(chan NavigateOutcome, 1)
	if err := h.Submit(ctx, NavigateMessage{SessionID: sessionID, URL: url, Reply: reply}); err != nil {
		return NavigationResult{}, err
	}
	select {
	case out := <-reply:
		return out.Result, out.Err
	case <-ctx.Done():
		return NavigationResult{}, ctx.Err()
	}
}
