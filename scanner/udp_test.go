package scanner

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUDPProbe_Open(t *testing.T) {
	conn := listenUDP(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	go func() {
		buf := make([]byte, 1500)
		_, raddr, err := conn.ReadFromUDP(buf)
		if err == nil {
			_, _ = conn.WriteToUDP([]byte("pong"), raddr)
		}
	}()

	sink := &recordSink{}
	probe := &UDPProbe{Timeout: time.Second, Sink: sink}
	probe.Run(context.Background(), Task{Host: "127.0.0.1", Port: port})

	assert.Equal(t, []string{
		fmt.Sprintf("Scanning UDP port %d on 127.0.0.1", port),
		fmt.Sprintf("UDP port %d on 127.0.0.1 is open.", port),
	}, sink.Lines())
}

func TestUDPProbe_SilentPeerIsClosedOrFiltered(t *testing.T) {
	conn := listenUDP(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	sink := &recordSink{}
	probe := &UDPProbe{Timeout: 100 * time.Millisecond, Sink: sink}

	start := time.Now()
	probe.Run(context.Background(), Task{Host: "127.0.0.1", Port: port})
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond, "returned before the receive timeout")

	lines := sink.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, fmt.Sprintf("UDP port %d on 127.0.0.1 is closed or filtered.", port), lines[1])
}

func TestUDPProbe_UnresolvableHost(t *testing.T) {
	sink := &recordSink{}
	probe := &UDPProbe{Timeout: 100 * time.Millisecond, Sink: sink}
	probe.Run(context.Background(), Task{Host: "host.invalid", Port: 53})

	lines := sink.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "UDP port 53 on host.invalid is closed or filtered.", lines[1])
}
