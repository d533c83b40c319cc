package scanner

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// DirectProbe issues a bare HTTP request using the task method and records
// the status code and effective URL. The response body is never read.
type DirectProbe struct {
	Client *http.Client
	Sink   Sink
}

// Run implements Probe.
func (p *DirectProbe) Run(ctx context.Context, task Task) {
	target := TargetURL(task.Host, task.Port)
	logf(p.Sink, "Scanning %s with %s", target, task.Method)

	status := 0
	server := target

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(task.Method), target, nil)
	if err == nil {
		var resp *http.Response
		resp, err = p.Client.Do(req)
		if err == nil {
			status = resp.StatusCode
			if resp.Request != nil && resp.Request.URL != nil {
				server = resp.Request.URL.String()
			}
			_ = resp.Body.Close()
		}
	}

	logf(p.Sink, "Method: %s, Host: %s, Port: %d, Status: %d, Server: %s",
		task.Method, task.Host, task.Port, status, server)
}

// TargetURL builds scheme://host[:port]/ for a task. The scheme is https only
// for port 443 and the port is left implicit for 80 and 443.
func TargetURL(host string, port int) string {
	scheme := "http"
	if port == 443 {
		scheme = "https"
	}
	authority := host
	if port != 80 && port != 443 {
		authority = net.JoinHostPort(host, strconv.Itoa(port))
	}
	return scheme + "://" + authority + "/"
}
