package protocol

// NavigateParams are the parameters of the `Page.navigate` command.
//
// https://chromedevtools.github.io/devtools-protocol/tot/Page/#method-navigate
type NavigateParams struct {
	URL string `json:"url"`
}

// NavigateResult is the result of the `Page.navigate` command. ErrorText is
// set when the browser failed to even begin the navigation (e.g. an
// invalid URL); a successfully started navigation still needs the matching
// lifecycle event before it is considered complete.
type NavigateResult struct {
	FrameID   string `json:"frameId"`
	ErrorText string `json:"errorText,omitempty"`
}

// SetLifecycleEventsEnabledParams are the parameters of
// `Page.setLifecycleEventsEnabled`.
type SetLifecycleEventsEnabledParams struct {
	Enabled bool `json:"enabled"`
}

// LifecycleEvent is the payload of `Page.lifecycleEvent`. The Name field is
// one of "init", "load", "DOMContentLoaded", "networkIdle", etc.
type LifecycleEvent struct {
	FrameID   string  `json:"frameId"`
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
}

// FrameNavigatedEvent is the payload of `Page.frameNavigated`.
type FrameNavigatedEvent struct {
	Frame struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"frame"`
}

// Method/event name constants for the Page domain.
const (
	MethodEnable                     = "Page.enable"
	MethodNavigate                   = "Page.navigate"
	MethodSetLifecycleEventsEnabled  = "Page.setLifecycleEventsEnabled"
	EventLifecycleEvent              = "Page.lifecycleEvent"
	EventFrameNavigated               = "Page.frameNavigated"
)

// LifecycleTerminal reports whether a Page.lifecycleEvent name marks a
// navigation as usably complete: either the load event fired, or the
// network has gone idle.
func LifecycleTerminal(name string) bool {
	return name == "load" || name == "networkIdle"
}
