package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cdpcore/cdpcore/internal/protocol"
	"github.com/cdpcore/cdpcore/internal/wire"
)

// DefaultCommandTimeout is how long a pending command may sit unanswered
// before it is evicted and failed with a TimeoutError.
const DefaultCommandTimeout = 30 * time.Second

// Config configures a Handler.
type Config struct {
	// CommandTimeout bounds how long any pending command — external,
	// internal, navigate or createTarget — may go unanswered.
	CommandTimeout time.Duration
	// EvictionInterval is how often the pending table is checked for
	// expired entries.
	EvictionInterval time.Duration
	// Debug enables verbose logging of dispatch and eviction activity to
	// stderr.
	Debug bool
}

// DefaultConfig returns the Handler's default configuration.
func DefaultConfig() Config {
	return Config{
		CommandTimeout:   DefaultCommandTimeout,
		EvictionInterval: EvictionInterval,
	}
}

// Handler is the single-goroutine core that owns every piece of mutable
// CDP session state: the pending-command table, the target registry, the
// session table and the navigation coordinator. All of it is touched only
// from within Run; every other method either sends a message into the
// run loop's inbox or reads state the caller is allowed to read lock-free
// because it never changes after construction (the adapter, the config).
type Handler struct {
	cfg Config

	adapter     *wire.Adapter
	pending     *pendingTable
	targets     *targetRegistry
	sessions    *sessionTable
	navigations *navigationCoordinator
	eviction    *evictionJob

	inbox chan HandlerMessage
	done  chan struct{}
	err   error
}

// New constructs a Handler over conn. It does not start the run loop;
// call Run to do that.
func New(conn wire.Conn, cfg Config) *Handler {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.EvictionInterval <= 0 {
		cfg.EvictionInterval = EvictionInterval
	}
	return &Handler{
		cfg:         cfg,
		adapter:     wire.NewAdapter(conn),
		pending:     newPendingTable(cfg.CommandTimeout),
		targets:     newTargetRegistry(),
		sessions:    newSessionTable(),
		navigations: newNavigationCoordinator(),
		eviction:    newEvictionJob(cfg.EvictionInterval),
		inbox:       make(chan HandlerMessage, 32),
		done:        make(chan struct{}),
	}
}

func (h *Handler) debugf(format string, args ...any) {
	if !h.cfg.Debug {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(os.Stderr, "[DEBUG] [%s] [handler] "+format+"\n", append([]any{ts}, args...)...)
}

// Done returns a channel that is closed once Run has returned.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Err returns the error that ended the run loop, if any. It is only safe
// to call after Done has been closed.
func (h *Handler) Err() error {
	return h.err
}

// Run issues the startup discovery command and then drives the composite
// poll loop until ctx is cancelled or the connection fails. It returns the
// same error exposed by Err.
func (h *Handler) Run(ctx context.Context) error {
	defer close(h.done)
	defer h.adapter.Close()

	if err := h.startDiscovery(ctx); err != nil {
		h.err = err
		return h.err
	}

	for {
		if h.err != nil {
			return h.err
		}
		select {
		case <-ctx.Done():
			h.err = ctx.Err()
			return h.err
		default:
		}

		if h.drainOnce(ctx) {
			continue
		}

		select {
		case <-ctx.Done():
			h.err = ctx.Err()
			return h.err
		case msg, ok := <-h.inbox:
			if !ok {
				return h.err
			}
			h.handleMessage(ctx, msg)
		case in, ok := <-h.adapter.Inbound():
			if !ok {
				return h.err
			}
			if h.handleInbound(in) {
				return h.err
			}
		case now := <-h.eviction.C():
			h.evictTimeouts(now)
		}
	}
}

// drainOnce services one ready item from the inbox, the target registry
// or the connection adapter, in that priority order, without blocking. It
// reports whether it found anything to do, matching the non-blocking
// drain-then-block structure of the upstream poll loop this core is
// modeled on: service everything that is immediately ready before
// parking on a blocking select.
func (h *Handler) drainOnce(ctx context.Context) bool {
	select {
	case msg, ok := <-h.inbox:
		if !ok {
			return false
		}
		h.handleMessage(ctx, msg)
		return true
	default:
	}

	if targetID, ev, ok := h.targets.pollNext(); ok {
		h.handleTargetEvent(ctx, targetID, ev)
		return true
	}

	select {
	case in, ok := <-h.adapter.Inbound():
		if !ok {
			return false
		}
		h.handleInbound(in)
		return true
	default:
	}

	return false
}

// handleInbound processes one item from the adapter's inbound sequence.
// It reports whether the handler should stop running.
func (h *Handler) handleInbound(in wire.Inbound) bool {
	if in.Err != nil {
		h.err = &TransportError{Err: in.Err}
		return true
	}
	if in.Response != nil {
		h.dispatchResponse(in.Response)
	} else if in.Event != nil {
		h.dispatchEvent(in.Event)
	}
	return false
}

func (h *Handler) startDiscovery(ctx context.Context) error {
	params, _ := json.Marshal(protocol.SetDiscoverTargetsParams{Discover: true})
	if _, err := h.adapter.Submit(ctx, protocol.MethodSetDiscoverTargets, "", params); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, msg HandlerMessage) {
	switch m := msg.(type) {
	case CreatePageMessage:
		h.handleCreatePage(ctx, m)
	case GetPagesMessage:
		h.handleGetPages(m)
	case CommandMessage:
		h.handleCommand(ctx, m)
	case NavigateMessage:
		h.handleNavigateMessage(m)
	case SubscribeMessage:
		// Intentionally inert.
	}
}

func (h *Handler) handleCreatePage(ctx context.Context, m CreatePageMessage) {
	params, err := json.Marshal(protocol.CreateTargetParams{URL: m.URL})
	if err != nil {
		h.replyCreatePage(m.Reply, nil, &SerializationError{Err: err})
		return
	}
	callID, err := h.adapter.Submit(ctx, protocol.MethodCreateTarget, "", params)
	if err != nil {
		h.fatal(err)
		return
	}
	h.pending.insert(callID, pendingEntry{
		kind:              pendingCreateTarget,
		issued:            time.Now(),
		method:            protocol.MethodCreateTarget,
		createTargetReply: m.Reply,
	})
}

func (h *Handler) handleGetPages(m GetPagesMessage) {
	if m.Reply == nil {
		return
	}
	var pages []*Page
	for _, t := range h.targets.all() {
		if t.SessionID != "" {
			pages = append(pages, &Page{TargetID: t.ID, SessionID: t.SessionID})
		}
	}
	m.Reply <- pages
	close(m.Reply)
}

func (h *Handler) handleCommand(ctx context.Context, m CommandMessage) {
	if m.IsNavigation() {
		h.handleNavigateCommand(ctx, m)
		return
	}
	callID, err := h.adapter.Submit(ctx, m.Method, m.SessionID, m.Params)
	if err != nil {
		h.fatal(err)
		return
	}
	h.pending.insert(callID, pendingEntry{
		kind:          pendingExternalCommand,
		issued:        time.Now(),
		method:        m.Method,
		externalReply: m.Reply,
	})
}

func (h *Handler) handleNavigateCommand(_ context.Context, m CommandMessage) {
	targetID, ok := h.sessions.targetFor(m.SessionID)
	if !ok {
		h.replyCommand(m.Reply, &ProtocolError{Err: fmt.Errorf("unknown session %q", m.SessionID)})
		return
	}
	t, ok := h.targets.get(targetID)
	if !ok {
		h.replyCommand(m.Reply, &InternalInvariantError{Msg: fmt.Sprintf("session %s has no registered target", m.SessionID)})
		return
	}

	navID := h.navigations.allocateID()
	req := OutboundRequest{Method: m.Method, SessionID: m.SessionID, Params: m.Params}
	if err := t.beginNavigation(navID, req); err != nil {
		h.replyCommand(m.Reply, err)
		return
	}
	reply := m.Reply
	h.navigations.begin(navID, func(response json.RawMessage, _ *protocol.RequestWillBeSentEvent, err error) {
		if reply == nil {
			return
		}
		reply <- CommandResult{Result: response, Err: err}
		close(reply)
	})
}

func (h *Handler) replyCommand(reply chan<- CommandResult, err error) {
	if reply == nil {
		return
	}
	reply <- CommandResult{Err: err}
	close(reply)
}

func (h *Handler) handleTargetEvent(ctx context.Context, targetID string, ev targetEvent) {
	switch e := ev.(type) {
	case requestEvent:
		h.submitInternalRequest(ctx, targetID, e.Req)
	case navigationRequestEvent:
		h.submitNavigationRequest(ctx, e.NavID, e.Req)
	case navigationResultEvent:
		h.navigations.onLifecycleCompleted(e.Outcome)
	}
}

func (h *Handler) submitInternalRequest(ctx context.Context, targetID string, req OutboundRequest) {
	callID, err := h.adapter.Submit(ctx, req.Method, req.SessionID, req.Params)
	if err != nil {
		h.fatal(err)
		return
	}
	h.pending.insert(callID, pendingEntry{
		kind:     pendingInternalCommand,
		issued:   time.Now(),
		method:   req.Method,
		targetID: targetID,
	})
}

func (h *Handler) submitNavigationRequest(ctx context.Context, navID uint64, req OutboundRequest) {
	callID, err := h.adapter.Submit(ctx, req.Method, req.SessionID, req.Params)
	if err != nil {
		h.fatal(err)
		return
	}
	h.pending.insert(callID, pendingEntry{
		kind:   pendingNavigate,
		issued: time.Now(),
		method: req.Method,
		navID:  navID,
	})
}

func (h *Handler) submitAttachToTarget(targetID string) {
	params, err := json.Marshal(protocol.AttachToTargetParams{TargetID: targetID, Flatten: true})
	if err != nil {
		h.debugf("marshal attachToTarget for %s: %v", targetID, err)
		return
	}
	callID, err := h.adapter.Submit(context.Background(), protocol.MethodAttachToTarget, "", params)
	if err != nil {
		h.fatal(err)
		return
	}
	h.pending.insert(callID, pendingEntry{
		kind:     pendingInternalCommand,
		issued:   time.Now(),
		method:   protocol.MethodAttachToTarget,
		targetID: targetID,
	})
}

func (h *Handler) evictTimeouts(now time.Time) {
	expired := h.pending.evictExpired(now)
	for _, e := range expired {
		h.debugf("evicting pending %s issued at %s", e.method, e.issued)
		switch e.kind {
		case pendingCreateTarget:
			h.replyCreatePage(e.createTargetReply, nil, &TimeoutError{Method: e.method})
		case pendingNavigate:
			h.navigations.abandon([]uint64{e.navID}, &TimeoutError{Method: e.method})
		case pendingExternalCommand:
			h.replyCommand(e.externalReply, &TimeoutError{Method: e.method})
		case pendingInternalCommand:
			h.teardownTarget(e.targetID, &TimeoutError{Method: e.method})
		}
	}
}

func (h *Handler) fatal(err error) {
	if h.err == nil {
		h.err = &TransportError{Err: err}
	}
}

// Submit enqueues msg for the run loop to process. It returns immediately;
// callers read the outcome from the channel embedded in msg.
func (h *Handler) Submit(ctx context.Context, msg HandlerMessage) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return fmt.Errorf("handler stopped: %w", h.Err())
	}
}

// CreatePage creates a new browser target, attaches to it and returns a
// page handle once the attach completes.
func (h *Handler) CreatePage(ctx context.Context, url string) (*Page, error) {
	reply := make(chan CreatePageResult, 1)
	if err := h.Submit(ctx, CreatePageMessage{URL: url, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Page, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetPages returns a page handle for every currently attached target.
func (h *Handler) GetPages(ctx context.Context) ([]*Page, error) {
	reply := make(chan []*Page, 1)
	if err := h.Submit(ctx, GetPagesMessage{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case pages := <-reply:
		return pages, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Command submits method (optionally session-scoped) and waits for its
// result. Navigate commands are routed through the navigation coordinator
// automatically; the caller does not need to know the difference.
func (h *Handler) Command(ctx context.Context, sessionID, method string, params json.RawMessage) (json.RawMessage, error) {
	reply := make(chan CommandResult, 1)
	if err := h.Submit(ctx, CommandMessage{Method: method, SessionID: sessionID, Params: params, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Result, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
