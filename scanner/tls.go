package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// TLSProbe attempts a TLS handshake and reports whether the peer presented
// a certificate.
type TLSProbe struct {
	Timeout time.Duration
	Port    int
	Config  *tls.Config
	Sink    Sink
}

// Run implements Probe. The task port is ignored; the handshake always
// targets p.Port.
func (p *TLSProbe) Run(ctx context.Context, task Task) {
	logf(p.Sink, "Checking SSL on %s", task.Host)

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config:    p.Config,
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(task.Host, strconv.Itoa(p.Port)))
	if err != nil {
		logf(p.Sink, "SSL connection to %s failed: %s (%d)", task.Host, err.Error(), errorCode(err))
		return
	}
	defer conn.Close()

	subject := ""
	if tlsConn, ok := conn.(*tls.Conn); ok {
		if certs := tlsConn.ConnectionState().PeerCertificates; len(certs) > 0 {
			subject = certs[0].Subject.String()
		}
	}
	if subject != "" {
		logf(p.Sink, "SSL certificate found for %s (subject: %s)", task.Host, subject)
	} else {
		logf(p.Sink, "SSL certificate found for %s", task.Host)
	}
}

// errorCode extracts the OS error number from err, or 0 when there is none.
func errorCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
