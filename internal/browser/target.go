package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Target describes one CDP target as reported by the browser's /json HTTP
// endpoint: a page, a service worker, a background page, and so on. It is
// the HTTP-discovery counterpart of protocol.TargetInfo, which the Handler
// only ever learns about over the WebSocket's Target.targetCreated event.
type Target struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description,omitempty"`
	WebSocketURL string `json:"webSocketDebuggerUrl"`
}

// VersionInfo is the /json/version response. WebSocketURL here is the
// browser-level endpoint: the one a Handler must dial so that
// Target.setDiscoverTargets and Target.attachToTarget are available, as
// opposed to a single page's own WebSocketURL in Target.
type VersionInfo struct {
	Browser       string `json:"Browser"`
	ProtocolVer   string `json:"Protocol-Version"`
	UserAgent     string `json:"User-Agent"`
	V8Version     string `json:"V8-Version"`
	WebKitVersion string `json:"WebKit-Version"`
	WebSocketURL  string `json:"webSocketDebuggerUrl"`
}

// fetchJSON GETs url and decodes the JSON body into out. Uses
// http.DefaultClient, which has no timeout; callers must provide a context
// with a deadline. Acceptable for local CDP discovery calls, which never
// leave the loopback interface.
func fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from %s: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", url, err)
	}
	return nil
}

// FetchTargets retrieves the list of available targets from the CDP
// HTTP endpoint.
func FetchTargets(ctx context.Context, host string, port int) ([]Target, error) {
	var targets []Target
	if err := fetchJSON(ctx, fmt.Sprintf("http://%s:%d/json", host, port), &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// FetchVersion retrieves browser version info, including the browser-level
// CDP WebSocket endpoint, from the CDP HTTP endpoint.
func FetchVersion(ctx context.Context, host string, port int) (*VersionInfo, error) {
	var info VersionInfo
	if err := fetchJSON(ctx, fmt.Sprintf("http://%s:%d/json/version", host, port), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FindPageTarget returns the first page-type target from the list.
func FindPageTarget(targets []Target) *Target {
	for i := range targets {
		if targets[i].Type == "page" {
			return &targets[i]
		}
	}
	return nil
}
