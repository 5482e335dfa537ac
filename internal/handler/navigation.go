package handler

import (
	"encoding/json"

	"github.com/cdpcore/cdpcore/internal/protocol"
)

// navigationInProgress joins the two independent signals a navigation
// resolves on: the Page.navigate command's own response, and the frame
// lifecycle event that says the navigation actually finished loading.
// Either can arrive first; the navigation is only reported to its caller
// once both have been observed, unless the lifecycle reports failure, in
// which case that failure wins regardless of ordering.
type navigationInProgress struct {
	navigated bool // lifecycle signal has arrived
	failed    bool
	failKind  string
	response  json.RawMessage // set once the command response has arrived successfully
	request   *protocol.RequestWillBeSentEvent // captured request carried by a lifecycle signal that arrived first

	// resolve delivers the final outcome to whichever caller is waiting:
	// a plain Command() caller only wants response/err, while Navigate()
	// also wants the captured request metadata.
	resolve func(response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error)
}

// navigationCoordinator tracks every in-flight navigation by its
// Handler-assigned navigation-id.
type navigationCoordinator struct {
	inProgress map[uint64]*navigationInProgress
	nextID     uint64
}

func newNavigationCoordinator() *navigationCoordinator {
	return &navigationCoordinator{inProgress: make(map[uint64]*navigationInProgress)}
}

// allocateID returns the next navigation-id, wrapping around uint64 and
// skipping any id still in use so that two live navigations can never
// collide. A collision after a full wraparound would require more than
// 2^64 navigations outstanding at once, which is not a real concern; the
// skip loop exists for correctness, not because it is expected to run.
func (c *navigationCoordinator) allocateID() uint64 {
	id := c.nextID
	c.nextID++
	for {
		if _, exists := c.inProgress[id]; !exists {
			return id
		}
		id = c.nextID
		c.nextID++
	}
}

func (c *navigationCoordinator) begin(navID uint64, resolve func(json.RawMessage, *protocol.RequestWillBeSentEvent, error)) {
	c.inProgress[navID] = &navigationInProgress{resolve: resolve}
}

// onResponse handles the arrival of the Page.navigate command's own
// response. err is set if the command itself failed at the protocol or
// serialization level (not a navigation failure).
func (c *navigationCoordinator) onResponse(navID uint64, raw json.RawMessage, err error) {
	nip, ok := c.inProgress[navID]
	if !ok {
		return
	}
	if err != nil {
		c.resolve(navID, nip, nil, nil, err)
		return
	}

	var navResult protocol.NavigateResult
	if jsonErr := json.Unmarshal(raw, &navResult); jsonErr != nil {
		c.resolve(navID, nip, nil, nil, &SerializationError{Err: jsonErr})
		return
	}
	if navResult.ErrorText != "" {
		c.resolve(navID, nip, nil, nil, &NavigationError{Kind: navResult.ErrorText})
		return
	}

	if nip.navigated {
		if nip.failed {
			c.resolve(navID, nip, nil, nil, &NavigationError{Kind: nip.failKind})
		} else {
			c.resolve(navID, nip, raw, nip.request, nil)
		}
		return
	}
	nip.response = raw
}

// onLifecycleCompleted handles the arrival of the frame lifecycle signal
// for a navigation, which a target's poll surfaces once it observes a
// terminal lifecycle event or a load failure.
func (c *navigationCoordinator) onLifecycleCompleted(outcome NavOutcome) {
	nip, ok := c.inProgress[outcome.NavID]
	if !ok {
		return
	}
	nip.navigated = true
	if !outcome.Ok {
		nip.failed = true
		nip.failKind = outcome.Kind
		c.resolve(outcome.NavID, nip, nil, outcome.Request, &NavigationError{Kind: outcome.Kind})
		return
	}
	nip.request = outcome.Request
	if nip.response != nil {
		c.resolve(outcome.NavID, nip, nip.response, outcome.Request, nil)
	}
}

func (c *navigationCoordinator) resolve(navID uint64, nip *navigationInProgress, response json.RawMessage, request *protocol.RequestWillBeSentEvent, err error) {
	delete(c.inProgress, navID)
	if nip.resolve != nil {
		nip.resolve(response, request, err)
	}
}

// abandon fails every still-open navigation, used when the target that
// owns them is torn down before they complete.
func (c *navigationCoordinator) abandon(navIDs []uint64, err error) {
	for _, id := range navIDs {
		if nip, ok := c.inProgress[id]; ok {
			c.resolve(id, nip, nil, nil, err)
		}
	}
}
