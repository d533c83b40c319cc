package scanner

import (
	"context"
	"net"
	"time"

	"bugscan/logging"
)

// UDPProbe sends an empty datagram and waits for any reply. Silence is not
// proof of a closed port, so the negative verdict is "closed or filtered".
type UDPProbe struct {
	Timeout time.Duration
	Sink    Sink
}

// Run implements Probe.
func (p *UDPProbe) Run(ctx context.Context, task Task) {
	logf(p.Sink, "Scanning UDP port %d on %s", task.Port, task.Host)

	if p.exchange(ctx, task) {
		logf(p.Sink, "UDP port %d on %s is open.", task.Port, task.Host)
	} else {
		logf(p.Sink, "UDP port %d on %s is closed or filtered.", task.Port, task.Host)
	}
}

// exchange reports whether a datagram came back before the receive timeout.
// ICMP port-unreachable surfaces as a read error and counts as no reply.
func (p *UDPProbe) exchange(ctx context.Context, task Task) bool {
	logger := logging.Logger()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", task.Address())
	if err != nil {
		logger.Debug("udp dial failed", "address", task.Address(), "error", err)
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{}); err != nil {
		logger.Debug("udp write failed", "address", task.Address(), "error", err)
		return false
	}

	_ = conn.SetReadDeadline(time.Now().Add(p.Timeout))

	buffer := make([]byte, 1024)
	if _, err := conn.Read(buffer); err != nil {
		logger.Debug("udp read failed", "address", task.Address(), "error", err)
		return false
	}
	return true
}
