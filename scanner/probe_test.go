package scanner

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink collects verdict lines.
type recordSink struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordSink) Log(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *recordSink) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

func TestParseMode(t *testing.T) {
	for _, m := range []string{"direct", "ping", "udp", "ssl", "ws"} {
		got, err := ParseMode(m)
		require.NoError(t, err, m)
		assert.Equal(t, Mode(m), got)
	}
	for _, m := range []string{"foo", "", "DIRECT", "tls"} {
		_, err := ParseMode(m)
		assert.ErrorIs(t, err, ErrUnknownMode, m)
	}
}

func TestNewProbe_Variants(t *testing.T) {
	cases := map[Mode]func(Probe) bool{
		ModeDirect: func(p Probe) bool {
			_, ok := p.(*DirectProbe)
			return ok
		},
		ModePing: func(p Probe) bool {
			ping, ok := p.(*PingProbe)
			if !ok {
				return false
			}
			_, isExec := ping.Pinger.(ExecPinger)
			return isExec
		},
		ModeUDP: func(p Probe) bool {
			udp, ok := p.(*UDPProbe)
			return ok && udp.Timeout == DefaultUDPTimeout
		},
		ModeSSL: func(p Probe) bool {
			tlsProbe, ok := p.(*TLSProbe)
			return ok && tlsProbe.Timeout == DefaultTLSTimeout && tlsProbe.Port == DefaultTLSPort
		},
		ModeWebSocket: func(p Probe) bool {
			_, ok := p.(*WebSocketProbe)
			return ok
		},
	}
	for mode, check := range cases {
		probe, err := NewProbe(mode, Options{})
		require.NoError(t, err, mode)
		assert.True(t, check(probe), "NewProbe(%s) = %#v", mode, probe)
	}

	_, err := NewProbe("foo", Options{})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestExecuteScan_UnknownModeSchedulesNothing(t *testing.T) {
	sink := &recordSink{}
	pulled := false
	hosts := func(yield func(string) bool) {
		pulled = true
		yield("example.com")
	}

	stats, err := ExecuteScan(context.Background(), Plan{
		Hosts:   hosts,
		Ports:   []int{80},
		Methods: []string{"head"},
		Mode:    "foo",
		Threads: 4,
	}, Options{Sink: sink})

	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.False(t, pulled, "host source was consumed")
	assert.Empty(t, sink.Lines())
	assert.Zero(t, stats.Admitted)
}

type staticPinger map[string]bool

func (s staticPinger) Ping(_ context.Context, host string) (bool, error) {
	return s[host], nil
}

func TestExecuteScan_RunsEveryTask(t *testing.T) {
	sink := &recordSink{}
	stats, err := ExecuteScan(context.Background(), Plan{
		Hosts:   slices.Values([]string{"h1", "h2"}),
		Ports:   []int{80, 443},
		Methods: []string{"head"},
		Mode:    ModePing,
		Threads: 3,
	}, Options{Sink: sink, Pinger: staticPinger{"h1": true}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Completed)
	assert.Zero(t, stats.InFlight)
	assert.ElementsMatch(t, []string{
		"Pinging h1", "Host h1 is reachable.",
		"Pinging h1", "Host h1 is reachable.",
		"Pinging h2", "Host h2 is unreachable.",
		"Pinging h2", "Host h2 is unreachable.",
	}, sink.Lines())
}

func TestExecuteScan_NoHosts(t *testing.T) {
	sink := &recordSink{}
	stats, err := ExecuteScan(context.Background(), Plan{
		Ports:   []int{80},
		Methods: []string{"head"},
		Mode:    ModeDirect,
		Threads: 1,
	}, Options{Sink: sink})
	require.NoError(t, err)
	assert.Zero(t, stats.Admitted)
	assert.Empty(t, sink.Lines())
}
