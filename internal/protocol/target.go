// Package protocol holds the minimal set of Chrome DevTools Protocol (CDP)
// command parameter, command result and event payload types the Handler
// needs: the Target, Page, Browser and Network domains. It follows the
// field-level documentation style of generated CDP bindings (see
// daabr/chrome-vision's pkg/devtools/<domain> packages) but, unlike a
// generated binding, only covers what the Handler itself dispatches on —
// DOM/page ergonomics and the other ~50 CDP domains are left to a
// higher-level façade built on top of this core.
package protocol

// CreateTargetParams are the parameters of the `Target.createTarget`
// command.
//
// https://chromedevtools.github.io/devtools-protocol/tot/Target/#method-createTarget
type CreateTargetParams struct {
	URL string `json:"url"`
}

// CreateTargetResult is the result of the `Target.createTarget` command.
type CreateTargetResult struct {
	TargetID string `json:"targetId"`
}

// AttachToTargetParams are the parameters of the `Target.attachToTarget`
// command.
type AttachToTargetParams struct {
	TargetID string `json:"targetId"`
	Flatten  bool   `json:"flatten"`
}

// AttachToTargetResult is the result of the `Target.attachToTarget` command.
type AttachToTargetResult struct {
	SessionID string `json:"sessionId"`
}

// SetDiscoverTargetsParams are the parameters of the
// `Target.setDiscoverTargets` command, which the Handler issues once at
// startup so that target lifecycle events start flowing immediately.
type SetDiscoverTargetsParams struct {
	Discover bool `json:"discover"`
}

// TargetInfo describes a target as reported in Target domain events.
//
// https://chromedevtools.github.io/devtools-protocol/tot/Target/#type-TargetInfo
type TargetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Attached bool   `json:"attached"`
}

// TargetCreatedEvent is the payload of `Target.targetCreated`.
type TargetCreatedEvent struct {
	TargetInfo TargetInfo `json:"targetInfo"`
}

// TargetDestroyedEvent is the payload of `Target.targetDestroyed`.
type TargetDestroyedEvent struct {
	TargetID string `json:"targetId"`
}

// AttachedToTargetEvent is the payload of `Target.attachedToTarget`.
type AttachedToTargetEvent struct {
	SessionID        string     `json:"sessionId"`
	TargetInfo       TargetInfo `json:"targetInfo"`
	WaitingForDebugger bool     `json:"waitingForDebugger"`
}

// DetachedFromTargetEvent is the payload of `Target.detachedFromTarget`.
type DetachedFromTargetEvent struct {
	SessionID string `json:"sessionId"`
	TargetID  string `json:"targetId,omitempty"`
}

// Method name constants for the Target domain, used both to submit commands
// and to switch on incoming event tags.
const (
	MethodCreateTarget        = "Target.createTarget"
	MethodAttachToTarget      = "Target.attachToTarget"
	MethodSetDiscoverTargets  = "Target.setDiscoverTargets"
	EventTargetCreated        = "Target.targetCreated"
	EventTargetDestroyed      = "Target.targetDestroyed"
	EventAttachedToTarget     = "Target.attachedToTarget"
	EventDetachedFromTarget   = "Target.detachedFromTarget"
)
