package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Probe executes one kind of network check against a task and reports its
// verdict through a Sink. Failures are part of the verdict, never returned.
type Probe interface {
	Run(ctx context.Context, task Task)
}

// Sink receives fully formatted verdict lines. Implementations must be safe
// for concurrent use.
type Sink interface {
	Log(line string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(line string)

// Log calls f(line).
func (f SinkFunc) Log(line string) { f(line) }

// Mode selects the probe variant for a scan.
type Mode string

const (
	ModeDirect    Mode = "direct"
	ModePing      Mode = "ping"
	ModeUDP       Mode = "udp"
	ModeSSL       Mode = "ssl"
	ModeWebSocket Mode = "ws"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeDirect, ModePing, ModeUDP, ModeSSL, ModeWebSocket}

// ErrUnknownMode indicates a mode string outside Modes.
var ErrUnknownMode = errors.New("invalid mode specified")

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of direct, ping, udp, ssl, ws)", ErrUnknownMode, s)
}

// Options carries the collaborators and timeouts shared by probe variants.
// Zero values select the defaults.
type Options struct {
	Sink Sink

	// HTTPClient is used by the direct and ws probes.
	HTTPClient *http.Client

	// Pinger is used by the ping probe. Defaults to ExecPinger.
	Pinger Pinger

	UDPTimeout time.Duration
	TLSTimeout time.Duration
	TLSConfig  *tls.Config
	TLSPort    int

	// Proxy is accepted for compatibility and not applied to any probe.
	Proxy string
}

const (
	DefaultUDPTimeout  = time.Second
	DefaultTLSTimeout  = 30 * time.Second
	DefaultPingTimeout = 5 * time.Second
	DefaultTLSPort     = 443
)

// NewProbe returns the probe implementation for mode.
func NewProbe(mode Mode, opts Options) (Probe, error) {
	sink := opts.Sink
	if sink == nil {
		sink = SinkFunc(func(string) {})
	}
	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient()
	}

	switch mode {
	case ModeDirect:
		return &DirectProbe{Client: client, Sink: sink}, nil
	case ModePing:
		pinger := opts.Pinger
		if pinger == nil {
			pinger = ExecPinger{Timeout: DefaultPingTimeout}
		}
		return &PingProbe{Pinger: pinger, Sink: sink}, nil
	case ModeUDP:
		timeout := opts.UDPTimeout
		if timeout <= 0 {
			timeout = DefaultUDPTimeout
		}
		return &UDPProbe{Timeout: timeout, Sink: sink}, nil
	case ModeSSL:
		timeout := opts.TLSTimeout
		if timeout <= 0 {
			timeout = DefaultTLSTimeout
		}
		port := opts.TLSPort
		if port <= 0 {
			port = DefaultTLSPort
		}
		return &TLSProbe{Timeout: timeout, Port: port, Config: opts.TLSConfig, Sink: sink}, nil
	case ModeWebSocket:
		return &WebSocketProbe{Client: client, Sink: sink}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// newHTTPClient mirrors a plain curl handle: redirects are not followed and
// no overall timeout is imposed.
func newHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func logf(sink Sink, format string, args ...any) {
	sink.Log(fmt.Sprintf(format, args...))
}
