package protocol

// RequestWillBeSentEvent is the payload of `Network.requestWillBeSent`. A
// navigation's composite future uses the main-frame request captured by
// this event to report the navigation's HTTP request metadata.
type RequestWillBeSentEvent struct {
	RequestID string `json:"requestId"`
	FrameID   string `json:"frameId"`
	Type      string `json:"type"`
	Request   struct {
		URL    string `json:"url"`
		Method string `json:"method"`
	} `json:"request"`
}

// EventRequestWillBeSent names the Network.requestWillBeSent event tag.
const EventRequestWillBeSent = "Network.requestWillBeSent"

// LoadingFailedEvent is the payload of `Network.loadingFailed`.
type LoadingFailedEvent struct {
	RequestID string `json:"requestId"`
	ErrorText string `json:"errorText"`
	Canceled  bool   `json:"canceled"`
}

// Method/event name constants for the Network domain.
const (
	MethodNetworkEnable = "Network.enable"
	EventLoadingFailed  = "Network.loadingFailed"
)
