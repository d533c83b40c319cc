package scanner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"bugscan/logging"
)

// Pinger sends a single ICMP echo to host and reports whether exactly one
// reply came back.
type Pinger interface {
	Ping(ctx context.Context, host string) (bool, error)
}

// PingProbe reports whether a host answers a single echo request.
type PingProbe struct {
	Pinger Pinger
	Sink   Sink
}

// Run implements Probe.
func (p *PingProbe) Run(ctx context.Context, task Task) {
	logf(p.Sink, "Pinging %s", task.Host)

	reachable, err := p.Pinger.Ping(ctx, task.Host)
	if err != nil {
		logging.Logger().Debug("ping failed", "host", task.Host, "error", err)
	}
	if reachable {
		logf(p.Sink, "Host %s is reachable.", task.Host)
	} else {
		logf(p.Sink, "Host %s is unreachable.", task.Host)
	}
}

var errOptionLikeHost = errors.New("host must not start with '-'")

// ExecPinger shells out to the system ping utility.
type ExecPinger struct {
	Timeout time.Duration
}

// Ping runs `ping -c 1 host` and inspects its summary line.
func (e ExecPinger) Ping(ctx context.Context, host string) (bool, error) {
	if strings.HasPrefix(host, "-") {
		return false, errOptionLikeHost
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, "ping", "-c", "1", host).CombinedOutput()
	if pingReceived(string(out)) {
		return true, nil
	}
	return false, err
}

// pingReceived matches the Linux ("1 received") and BSD ("1 packets
// received") summaries.
func pingReceived(output string) bool {
	return strings.Contains(output, " 1 received") || strings.Contains(output, " 1 packets received")
}
