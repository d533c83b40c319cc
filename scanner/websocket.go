package scanner

import (
	"context"
	"net/http"
)

// upgradeStatuses are the response codes that suggest a WebSocket endpoint
// is present behind the host, even when the upgrade itself is refused.
var upgradeStatuses = map[int]struct{}{
	http.StatusSwitchingProtocols:  {},
	http.StatusForbidden:           {},
	http.StatusUpgradeRequired:     {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusServiceUnavailable:  {},
}

// UpgradeAccepted reports whether status counts as a successful upgrade probe.
func UpgradeAccepted(status int) bool {
	_, ok := upgradeStatuses[status]
	return ok
}

// WebSocketProbe sends an HTTP upgrade request to ws://host.
type WebSocketProbe struct {
	Client *http.Client
	Sink   Sink
}

// Run implements Probe.
func (p *WebSocketProbe) Run(ctx context.Context, task Task) {
	logf(p.Sink, "Attempting WebSocket connection to %s", task.Host)

	status := p.upgrade(ctx, task.Host)
	if UpgradeAccepted(status) {
		logf(p.Sink, "WebSocket connection to %s succeeded with status %d", task.Host, status)
	} else {
		logf(p.Sink, "WebSocket connection to %s failed.", task.Host)
	}
}

// upgrade returns the response status, or 0 if no response was received.
// net/http does not speak the ws scheme, so the request goes out as http.
func (p *WebSocketProbe) upgrade(ctx context.Context, host string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0
	}
	_ = resp.Body.Close()
	return resp.StatusCode
}
