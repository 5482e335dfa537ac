package handler

import (
	"encoding/json"

	"github.com/cdpcore/cdpcore/internal/protocol"
)

const navigateMethod = protocol.MethodNavigate

// OutboundRequest is a CDP command the Handler must submit to the
// connection adapter on behalf of some internal caller (a target's own
// setup commands, or a navigation command).
type OutboundRequest struct {
	Method    string
	SessionID string
	Params    json.RawMessage
}

// CommandResult is what an external command caller receives: either the
// raw result payload, or an error (serialization, protocol or timeout).
type CommandResult struct {
	Result json.RawMessage
	Err    error
}

// Page is the minimal handle the Handler hands back for a created or
// discovered target. Page-object ergonomics (DOM queries, screenshots,
// scripted interaction) live in a higher-level façade; this handle only
// carries the identifiers that façade needs to route further commands.
type Page struct {
	TargetID  string
	SessionID string
}

// CreatePageResult is delivered to a CreatePage caller once the new
// target's page handle is ready, or on error.
type CreatePageResult struct {
	Page *Page
	Err  error
}

// HandlerMessage is the tagged union of inbound client requests the
// intake accepts: create a page, list pages, submit a command, navigate a
// session (NavigateMessage), or subscribe. Send a concrete message value to
// Handler.Submit.
type HandlerMessage interface {
	isHandlerMessage()
}

// CommandMessage asks the Handler to submit an arbitrary CDP command and
// deliver the raw response (or the navigation result, if Method is the
// navigate method) to Reply.
type CommandMessage struct {
	Method    string
	SessionID string
	Params    json.RawMessage
	Reply     chan<- CommandResult
}

func (CommandMessage) isHandlerMessage() {}

// IsNavigation reports whether this command is a Page.navigate command,
// which the intake routes to the navigation coordinator instead of
// treating as an opaque external command.
func (m CommandMessage) IsNavigation() bool {
	return m.Method == navigateMethod
}

// CreatePageMessage asks the Handler to create a new target and deliver
// its page handle once initialized.
type CreatePageMessage struct {
	URL   string
	Reply chan<- CreatePageResult
}

func (CreatePageMessage) isHandlerMessage() {}

// GetPagesMessage asks the Handler for one page handle per target that
// can currently produce one.
type GetPagesMessage struct {
	Reply chan<- []*Page
}

func (GetPagesMessage) isHandlerMessage() {}

// SubscribeMessage is reserved for future event-subscription filtering.
// Its semantics were never pinned down and it remains an intentional
// no-op.
type SubscribeMessage struct{}

func (SubscribeMessage) isHandlerMessage() {}
